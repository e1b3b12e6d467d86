package common

import (
	"github.com/transkatgirl/generative-model-proxy-server-sub000/common/config"
)

var UsingSQLite = false
var UsingPostgreSQL = false
var UsingMySQL = false

var SQLitePath = config.SQLitePath
var SQLiteBusyTimeout = config.SQLiteBusyTimeout
