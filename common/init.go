package common

import (
	"flag"
	"os"
	"path/filepath"

	"github.com/Laisky/zap"

	"github.com/transkatgirl/generative-model-proxy-server-sub000/common/config"
	"github.com/transkatgirl/generative-model-proxy-server-sub000/common/logger"
)

var (
	Port   = flag.Int("port", 3000, "the listening port")
	LogDir = flag.String("log-dir", "", "specify the log directory")
)

func Init() {
	flag.Parse()

	if config.SessionSecretEnvValue == "random_string" {
		logger.Logger.Error("SESSION_SECRET is set to an example value, please change it to a random string.")
	}

	if *LogDir != "" {
		expanded := os.ExpandEnv(*LogDir)
		lg := logger.Logger.With(zap.String("log_dir", expanded))

		var err error
		expanded, err = filepath.Abs(expanded)
		if err != nil {
			lg.Fatal("failed to get absolute log dir", zap.Error(err))
		}

		if err = os.MkdirAll(expanded, 0o777); err != nil {
			lg.Fatal("failed to create log dir", zap.Error(err))
		}

		lg.Info("set log dir", zap.String("log_dir", expanded))
		logger.LogDir = expanded
		*LogDir = expanded
	}
}
