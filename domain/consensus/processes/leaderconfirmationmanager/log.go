package leaderconfirmationmanager

import (
	"github.com/prismledger/prismd/infrastructure/logger"
)

var log = logger.RegisterSubSystem("LDCF")
