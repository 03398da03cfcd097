package main

import (
	"fmt"
	"strings"
)

// resolveBaseURL derives the Cortex endpoint. An explicit base URL wins;
// otherwise it is built from the account identifier.
func resolveBaseURL(baseURLFlag, accountFlag, envBaseURL, envAccount string) (string, error) {
	if baseURLFlag != "" {
		return strings.TrimRight(baseURLFlag, "/"), nil
	}
	if envBaseURL != "" {
		return strings.TrimRight(envBaseURL, "/"), nil
	}
	account := accountFlag
	if account == "" {
		account = envAccount
	}
	if account == "" {
		return "", fmt.Errorf("no account found: set SNOWFLAKE_ACCOUNT (or use -account or -base-url flags)")
	}
	return fmt.Sprintf("https://%s.snowflakecomputing.com", account), nil
}

// resolveToken picks the API token: explicit flag overrides env var.
func resolveToken(tokenFlag, envToken string) (string, error) {
	token := tokenFlag
	if token == "" {
		token = envToken
	}
	if token == "" {
		return "", fmt.Errorf("no token found: set SNOWFLAKE_TOKEN (or use -token flag)")
	}
	return token, nil
}

// resolveSemanticModel picks the semantic model file reference.
func resolveSemanticModel(modelFlag, envModel string) (string, error) {
	model := modelFlag
	if model == "" {
		model = envModel
	}
	if model == "" {
		return "", fmt.Errorf("no semantic model found: set SEMANTIC_MODEL_FILE (or use -semantic-model flag)")
	}
	return model, nil
}

// resolveWarehouse picks the warehouse driver and DSN. Both empty means no
// warehouse: generated SQL is shown but not executed. A driver without a
// DSN (or the reverse) is a configuration error.
func resolveWarehouse(driverFlag, dsnFlag, envDriver, envDSN string) (driver, dsn string, err error) {
	driver = driverFlag
	if driver == "" {
		driver = envDriver
	}
	dsn = dsnFlag
	if dsn == "" {
		dsn = envDSN
	}
	if driver == "" && dsn == "" {
		return "", "", nil
	}
	if driver == "" || dsn == "" {
		return "", "", fmt.Errorf("warehouse driver and DSN must be set together (WAREHOUSE_DRIVER, WAREHOUSE_DSN)")
	}
	switch driver {
	case "pgx", "sqlserver":
		return driver, dsn, nil
	default:
		return "", "", fmt.Errorf("unknown warehouse driver %q: must be \"pgx\" or \"sqlserver\"", driver)
	}
}
