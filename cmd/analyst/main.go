// Command analyst is a terminal chat client for conversational payments
// analytics. Questions go to a Cortex Analyst endpoint; generated SQL is
// executed against the configured warehouse and results are rendered
// inline as tables and charts.
//
// Usage:
//
//	SNOWFLAKE_TOKEN=... analyst [flags]
//
// Flags:
//
//	-account string           Snowflake account identifier
//	-base-url string          Endpoint base URL (overrides -account)
//	-token string             API token (overrides SNOWFLAKE_TOKEN)
//	-semantic-model string    Semantic model file reference, e.g. @DB.SCHEMA.STAGE/model.yaml
//	-warehouse-driver string  Warehouse driver: pgx, sqlserver
//	-warehouse-dsn string     Warehouse connection string
//	-session string           Path to session file to resume
//	-list-sessions            List saved sessions and exit
//	-debug-log string         Path to debug log file
//
// Configuration is also read from the environment and an optional .env
// file: SNOWFLAKE_ACCOUNT, SNOWFLAKE_BASE_URL, SNOWFLAKE_TOKEN,
// SEMANTIC_MODEL_FILE, WAREHOUSE_DRIVER, WAREHOUSE_DSN.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	analyst "github.com/ledgerline/analyst"
	bt "github.com/ledgerline/analyst/bubbletea"
	"github.com/ledgerline/analyst/cortex"
	sessionjson "github.com/ledgerline/analyst/json"
	"github.com/ledgerline/analyst/turn"
	"github.com/ledgerline/analyst/warehouse"

	// Warehouse drivers, selected by -warehouse-driver.
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/microsoft/go-mssqldb"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "analyst: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// A local .env is a convenience; its absence is not an error.
	_ = godotenv.Load()

	var (
		accountFlag  = flag.String("account", "", "Snowflake account identifier")
		baseURLFlag  = flag.String("base-url", "", "Endpoint base URL (overrides -account)")
		tokenFlag    = flag.String("token", "", "API token (overrides SNOWFLAKE_TOKEN)")
		modelFlag    = flag.String("semantic-model", "", "Semantic model file reference")
		driverFlag   = flag.String("warehouse-driver", "", "Warehouse driver: pgx, sqlserver")
		dsnFlag      = flag.String("warehouse-dsn", "", "Warehouse connection string")
		sessionPath  = flag.String("session", "", "Path to session file to resume")
		listSessions = flag.Bool("list-sessions", false, "List saved sessions and exit")
		debugLogPath = flag.String("debug-log", "", "Path to debug log file")
	)
	flag.Parse()

	if *listSessions {
		return printSessions(os.Stdout)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger, closeLog, err := newLogger(*debugLogPath)
	if err != nil {
		return err
	}
	defer closeLog()

	baseURL, err := resolveBaseURL(*baseURLFlag, *accountFlag,
		os.Getenv("SNOWFLAKE_BASE_URL"), os.Getenv("SNOWFLAKE_ACCOUNT"))
	if err != nil {
		return err
	}
	token, err := resolveToken(*tokenFlag, os.Getenv("SNOWFLAKE_TOKEN"))
	if err != nil {
		return err
	}

	session, err := loadOrCreateSession(*sessionPath, *modelFlag, os.Getenv("SEMANTIC_MODEL_FILE"))
	if err != nil {
		return err
	}

	provider := cortex.New(baseURL, token, cortex.WithLogger(logger))

	querier, closeWarehouse, err := openWarehouse(ctx, *driverFlag, *dsnFlag, logger)
	if err != nil {
		return err
	}
	defer closeWarehouse()

	loop := turn.New(provider, querier)
	turnFn := func(ctx context.Context, s *analyst.Session, question string, onEvent func(turn.Event)) error {
		return loop.Run(ctx, s, question, turn.WithEventHandler(onEvent))
	}

	tuiModel := bt.New(turnFn, &session, analyst.DefaultTheme())
	if err := bt.Run(ctx, tuiModel); err != nil {
		return fmt.Errorf("TUI: %w", err)
	}

	// Save session on exit.
	if *sessionPath != "" {
		if err := sessionjson.Save(*sessionPath, session); err != nil {
			return fmt.Errorf("save session: %w", err)
		}
	} else if len(session.Messages) > 0 {
		savePath := filepath.Join(sessionsDir(), session.ID+".json")
		if err := sessionjson.Save(savePath, session); err != nil {
			return fmt.Errorf("auto-save session: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Session saved to %s\n", savePath)
	}

	return nil
}

// newLogger opens the debug log file, or discards everything when no path
// is set. The TUI owns the terminal, so logs never go to stderr.
func newLogger(path string) (*log.Logger, func(), error) {
	if path == "" {
		return log.New(io.Discard), func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("open debug log: %w", err)
	}
	logger := log.New(f)
	logger.SetLevel(log.DebugLevel)
	return logger, func() { f.Close() }, nil
}

// openWarehouse opens and pings the warehouse when one is configured.
// Returns a nil Querier when no warehouse is set.
func openWarehouse(ctx context.Context, driverFlag, dsnFlag string, logger *log.Logger) (analyst.Querier, func(), error) {
	driver, dsn, err := resolveWarehouse(driverFlag, dsnFlag,
		os.Getenv("WAREHOUSE_DRIVER"), os.Getenv("WAREHOUSE_DSN"))
	if err != nil {
		return nil, nil, err
	}
	if driver == "" {
		return nil, func() {}, nil
	}

	db, err := warehouse.Open(driver, dsn, warehouse.WithLogger(logger))
	if err != nil {
		return nil, nil, err
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.Ping(pingCtx); err != nil {
		db.Close()
		return nil, nil, err
	}
	return db, func() { db.Close() }, nil
}

func loadOrCreateSession(sessionPath, modelFlag, envModel string) (analyst.Session, error) {
	if sessionPath != "" {
		s, err := sessionjson.Load(sessionPath)
		if err != nil {
			return analyst.Session{}, fmt.Errorf("load session: %w", err)
		}
		// A flag can point a resumed session at a different model.
		if modelFlag != "" {
			s.SemanticModel = modelFlag
		}
		return s, nil
	}

	model, err := resolveSemanticModel(modelFlag, envModel)
	if err != nil {
		return analyst.Session{}, err
	}

	now := time.Now()
	return analyst.Session{
		ID:            fmt.Sprintf("%d", now.UnixNano()),
		SemanticModel: model,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

func printSessions(w io.Writer) error {
	paths, err := sessionjson.List(sessionsDir(), "**/*.json")
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		fmt.Fprintln(w, "no saved sessions")
		return nil
	}
	for _, p := range paths {
		fmt.Fprintln(w, p)
	}
	return nil
}

func sessionsDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".analyst", "sessions")
}
