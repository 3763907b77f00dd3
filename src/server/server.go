package main

import (
	"github.com/apex/log"
	"github.com/hollowtone/vocal-remover-be/src/server/application"
	"github.com/hollowtone/vocal-remover-be/src/shared/config"
	"github.com/hollowtone/vocal-remover-be/src/shared/lib/env"
	"github.com/hollowtone/vocal-remover-be/src/shared/values/dev"
	"github.com/hollowtone/vocal-remover-be/src/shared/values/envvar"
	"github.com/joho/godotenv"
	"strings"
	"time"
)

const (
	prodSeparationTimeout = 5 * time.Minute
	prodSessionRetention  = 24 * time.Hour
)

func main() {
	var appConfig application.Config

	switch env.Get() {
	case env.Production:
		commaSeparatedOrigins := envvar.MustGet("ALLOWED_FE_ORIGINS")
		allowedOrigins := strings.Split(commaSeparatedOrigins, ",")

		appConfig = application.Config{
			SpleeterBinPath:        envvar.MustGet(envvar.SPLEETER_BIN_PATH),
			SpleeterWorkingDirPath: envvar.MustGet(envvar.SPLEETER_WORKING_DIR_PATH),
			SessionStorageDirPath:  envvar.MustGet(envvar.SESSION_STORAGE_DIR_PATH),
			MaxFileSize:            dev.MaxUploadFileSize,
			SeparationTimeout:      prodSeparationTimeout,
			SessionRetention:       prodSessionRetention,
			CORSAllowedOrigins:     allowedOrigins,
			Port:                   ":8000",
			Log:                    true,
		}

	case env.Development:
		if err := godotenv.Load(); err != nil {
			log.Info("No .env file loaded for development")
		}

		appConfig = application.Config{
			SpleeterBinPath:        config.SpleeterPath(),
			SpleeterWorkingDirPath: dev.SessionStorageDirPath + "/vocal_remover_wd",
			SessionStorageDirPath:  dev.SessionStorageDirPath,
			MaxFileSize:            dev.MaxUploadFileSize,
			SeparationTimeout:      dev.SeparationTimeout,
			SessionRetention:       dev.SessionRetention,
			CORSAllowedOrigins:     []string{"*"},
			Port:                   dev.ServerPort,
			Log:                    true,
		}

	default:
		panic("Unexpected environment")
	}

	app := application.NewApp(appConfig)
	if err := app.Start(); err != nil {
		panic(err)
	}
}
