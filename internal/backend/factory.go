package backend

import (
	"context"
	"fmt"
	"time"

	"fintrack/internal/amqp"
	applog "fintrack/internal/log"
	"fintrack/internal/sheets"
	gsheet "fintrack/internal/sheets/google"
	sheetsmem "fintrack/internal/sheets/memory"
	"fintrack/internal/storage"
	"fintrack/internal/store/memory"
	"fintrack/internal/worker"
)

const queueStopTimeout = 10 * time.Second

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *applog.Logger
}

func NewFactory(logger *applog.Logger) Factory {
	if logger == nil {
		logger = applog.Discard()
	}
	return &DefaultFactory{logger: logger.WithComponent(applog.ComponentBackend)}
}

// CreateStore implements Factory.CreateStore
func (f *DefaultFactory) CreateStore(ctx context.Context, config Config) (*StoreResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath, f.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		f.logger.InfoContext(ctx, "Initialized SQLite backend", "db_path", config.SQLiteDBPath)
		return &StoreResult{Store: repo, Cleanup: repo.Close}, nil
	case MemoryBackend:
		dataDir := config.DataDirectory
		if dataDir == "" {
			dataDir = defaultDataDirectory
		}
		st := memory.NewFromFiles(dataDir)
		f.logger.InfoContext(ctx, "Initialized memory backend", "data_directory", dataDir)
		return &StoreResult{Store: st, Cleanup: st.Close}, nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

// CreateExporter implements Factory.CreateExporter
func (f *DefaultFactory) CreateExporter(ctx context.Context, config Config) (sheets.InsightExporter, error) {
	if config.GoogleSpreadsheetID == "" {
		f.logger.InfoContext(ctx, "Google Sheets export disabled, keeping insights in memory")
		return sheetsmem.New(f.logger), nil
	}
	cli, err := gsheet.New(ctx, config.GoogleSpreadsheetID, config.GoogleSheetName, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}
	f.logger.InfoContext(ctx, "Initialized Google Sheets exporter",
		"spreadsheet_id", config.GoogleSpreadsheetID,
		"sheet", config.GoogleSheetName)
	return cli, nil
}

// CreatePublisher implements Factory.CreatePublisher. A broker that cannot be
// reached at startup is not fatal: events are handled in-process instead.
func (f *DefaultFactory) CreatePublisher(ctx context.Context, config Config, handler amqp.Handler) (*PublisherResult, error) {
	if config.AMQPURL != "" {
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue, f.logger)
		if err == nil {
			f.logger.InfoContext(ctx, "Initialized AMQP publisher",
				applog.FieldQueue, config.AMQPQueue,
				"exchange", config.AMQPExchange)
			return &PublisherResult{Publisher: client, Remote: true, Cleanup: client.Close}, nil
		}
		f.logger.WarnContext(ctx, "Failed to initialize AMQP client, handling events in-process", applog.FieldError, err)
	}

	if handler == nil {
		return nil, fmt.Errorf("an event handler is required without an AMQP broker")
	}

	queue := worker.NewLocalQueue(handler, worker.DefaultLocalQueueConfig(), f.logger)
	// The loop must outlive ctx so Cleanup can drain pending events.
	if err := queue.Start(context.WithoutCancel(ctx)); err != nil {
		return nil, fmt.Errorf("start local event queue: %w", err)
	}
	return &PublisherResult{
		Publisher: queue,
		Cleanup: func() error {
			stopCtx, cancel := context.WithTimeout(context.Background(), queueStopTimeout)
			defer cancel()
			return queue.Stop(stopCtx)
		},
	}, nil
}
