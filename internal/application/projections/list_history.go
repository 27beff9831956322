package projections

import (
	"context"
	"fmt"

	"bulkmail/internal/application/listutil"
	domainMail "bulkmail/internal/domain/mail"
)

// ListHistoryQuery carries query parameters.
type ListHistoryQuery struct {
	Page  int
	Limit int
}

// ListHistoryResult carries one page of history.
type ListHistoryResult struct {
	Records    []domainMail.Record
	Pagination listutil.PageInfo
}

// ListHistoryDeps holds dependencies for ListHistory.
type ListHistoryDeps struct {
	MailStore MailStore
}

// QueryListHistory returns one page of mail records, newest first.
// PRE: none; non-positive page or limit fall back to defaults
// POST: len(Records) <= Pagination.Limit; Pagination.Pages == ceil(Total/Limit)
func QueryListHistory(ctx context.Context, query ListHistoryQuery, deps ListHistoryDeps) (ListHistoryResult, error) {
	params := listutil.PageParams{Page: query.Page, Limit: query.Limit}.Normalize()

	records, err := deps.MailStore.List(ctx, params.Offset(), params.Limit)
	if err != nil {
		return ListHistoryResult{}, fmt.Errorf("list history: %w", err)
	}
	total, err := deps.MailStore.Count(ctx)
	if err != nil {
		return ListHistoryResult{}, fmt.Errorf("count history: %w", err)
	}
	if records == nil {
		records = []domainMail.Record{}
	}

	return ListHistoryResult{
		Records:    records,
		Pagination: listutil.NewPageInfo(params, total),
	}, nil
}

// GetMailRecordQuery identifies a single record.
type GetMailRecordQuery struct {
	ID string
}

// QueryGetMailRecord returns one mail record by id.
// PRE: ID is non-empty
// POST: Returns the record or the store's not-found error
func QueryGetMailRecord(ctx context.Context, query GetMailRecordQuery, deps ListHistoryDeps) (domainMail.Record, error) {
	return deps.MailStore.GetByID(ctx, query.ID)
}
