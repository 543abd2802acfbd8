package realtime

import (
	"fmt"
	"log/slog"
	"reflect"

	"crwn/internal/observability"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Watch declares a table whose inserts are published, routed by Columns.
type Watch struct {
	Table   string
	Columns []string
}

const callbackName = "realtime:publish_inserts"

// WatchTables publishes every committed insert into a watched table to feed.
// Inserts made inside an explicit transaction are published when the create
// statement finishes, not when the outer transaction commits.
func WatchTables(db *gorm.DB, feed Feed, watches ...Watch) error {
	byTable := make(map[string]Watch, len(watches))
	for _, w := range watches {
		byTable[w.Table] = w
	}

	return db.Callback().Create().
		After("gorm:commit_or_rollback_transaction").
		Register(callbackName, func(tx *gorm.DB) {
			if tx.Error != nil || tx.Statement == nil || tx.Statement.Schema == nil {
				return
			}
			w, ok := byTable[tx.Statement.Table]
			if !ok {
				return
			}
			for _, record := range insertedRecords(tx.Statement.ReflectValue) {
				change, err := NewChange(w.Table, record, w.Columns...)
				if err == nil {
					err = feed.Publish(tx.Statement.Context, change)
				}
				if err != nil {
					observability.GlobalLogger.ErrorContext(tx.Statement.Context, "realtime publish failed",
						slog.String("table", w.Table),
						slog.String("driver", feed.Driver()),
						slog.String("error", err.Error()),
					)
				}
			}
		})
}

func insertedRecords(rv reflect.Value) []any {
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make([]any, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out = append(out, rv.Index(i).Interface())
		}
		return out
	case reflect.Struct:
		return []any{rv.Interface()}
	default:
		return nil
	}
}

// Options selects and configures a feed transport.
type Options struct {
	Driver  string
	Redis   *redis.Client
	NATSURL string
}

// New builds the feed for opts.Driver. A redis feed without a client falls
// back to the in-process feed.
func New(opts Options) (Feed, error) {
	switch opts.Driver {
	case DriverRedis, "":
		if opts.Redis == nil {
			observability.GlobalLogger.Warn("redis unavailable, realtime feed is process-local")
			return NewLocalFeed(), nil
		}
		return NewRedisFeed(opts.Redis), nil
	case DriverNATS:
		return ConnectNATS(opts.NATSURL)
	case DriverLocal:
		return NewLocalFeed(), nil
	default:
		return nil, fmt.Errorf("unknown realtime driver %q", opts.Driver)
	}
}
