package history

import (
	"context"
	"time"

	"github.com/rubiojr/prospect/pkg/engine"
	"github.com/rubiojr/prospect/pkg/leads"
)

const writeTimeout = 5 * time.Second

// Observer records committed searches and submitted exports as they happen.
// Write failures are logged and never reach the engine.
type Observer struct {
	engine.NopObserver
	store *Store
}

func (s *Store) Observer() *Observer {
	return &Observer{store: s}
}

func (o *Observer) SearchCommitted(filters leads.FilterSelection, page leads.SearchResultPage) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := o.store.RecordSearch(ctx, filters, page); err != nil {
		o.store.logger.Warnf("%v", err)
	}
}

func (o *Observer) ExportSubmitted(id string, job leads.ExportJob) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := o.store.RecordExport(ctx, id, job); err != nil {
		o.store.logger.Warnf("%v", err)
	}
}
