package envvar

import (
	"fmt"
	"os"
)

const (
	SPLEETER_BIN_PATH         = "SPLEETER_BIN_PATH"
	SPLEETER_WORKING_DIR_PATH = "SPLEETER_WORKING_DIR_PATH"
	SESSION_STORAGE_DIR_PATH  = "SESSION_STORAGE_DIR_PATH"
)

func MustGet(key string) string {
	val, isSet := os.LookupEnv(key)
	if !isSet {
		panic(fmt.Sprintf("No env variable found for key %s", key))
	}

	if val == "" {
		panic(fmt.Sprintf("Env variable is empty for key %s", key))
	}

	return val
}
