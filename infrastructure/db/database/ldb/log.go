package ldb

import (
	"github.com/prismledger/prismd/infrastructure/logger"
)

var log = logger.RegisterSubSystem("KVDB")
