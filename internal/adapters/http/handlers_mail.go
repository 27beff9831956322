package web

import (
	"errors"
	"fmt"
	"net/http"

	"bulkmail/internal/adapters/http/middleware"
	mailStore "bulkmail/internal/adapters/storage/mail"
	"bulkmail/internal/application/listutil"
	"bulkmail/internal/application/orchestrators"
	"bulkmail/internal/application/projections"
	"bulkmail/internal/domain/mail"
)

type sendRequest struct {
	Subject    string `json:"subject"`
	Body       string `json:"body"`
	Recipients string `json:"recipients"`
}

type sendData struct {
	ID           string             `json:"id"`
	Status       string             `json:"status"`
	SuccessCount int                `json:"successCount"`
	FailedCount  int                `json:"failedCount"`
	FailedEmails []mail.FailedEmail `json:"failedEmails,omitempty"`
}

type sendResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Data    sendData `json:"data"`
}

type historyResponse struct {
	Success    bool              `json:"success"`
	Data       []mail.Record     `json:"data"`
	Pagination listutil.PageInfo `json:"pagination"`
}

type recordResponse struct {
	Success bool        `json:"success"`
	Data    mail.Record `json:"data"`
}

// handleSendMail delivers one batch and records its outcome.
// A batch with failed recipients is still a 200: the per-recipient result is in the body.
func (a *api) handleSendMail(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if err := strictDecode(w, r, &req); err != nil {
		writeError(w, mail.ValidationError("invalid request body"))
		return
	}

	var senderID string
	if session, ok := middleware.GetSessionFromContext(r.Context()); ok {
		senderID = session.AccountID
	}

	result, err := orchestrators.ExecuteSubmitBatch(r.Context(), orchestrators.SubmitBatchInput{
		Subject:    req.Subject,
		Body:       req.Body,
		Recipients: req.Recipients,
		SenderID:   senderID,
	}, orchestrators.SubmitBatchDeps{
		Dispatcher: a.dispatcher,
		MailStore:  a.stores.MailStore,
		Observer:   a.metrics,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	rec := result.Record
	writeJSON(w, http.StatusOK, sendResponse{
		Success: true,
		Message: fmt.Sprintf("Emails sent: %d successful, %d failed", rec.SuccessCount, rec.FailedCount),
		Data: sendData{
			ID:           rec.ID,
			Status:       rec.Status,
			SuccessCount: rec.SuccessCount,
			FailedCount:  rec.FailedCount,
			FailedEmails: rec.FailedEmails,
		},
	})
}

// handleHistory lists recorded batches, newest first.
func (a *api) handleHistory(w http.ResponseWriter, r *http.Request) {
	params := listutil.ParsePageParams(r.URL.Query())
	result, err := projections.QueryListHistory(r.Context(), projections.ListHistoryQuery{
		Page:  params.Page,
		Limit: params.Limit,
	}, projections.ListHistoryDeps{MailStore: a.stores.MailStore})
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, historyResponse{
		Success:    true,
		Data:       result.Records,
		Pagination: result.Pagination,
	})
}

// handleHistoryRecord returns one recorded batch.
func (a *api) handleHistoryRecord(w http.ResponseWriter, r *http.Request) {
	rec, err := projections.QueryGetMailRecord(r.Context(), projections.GetMailRecordQuery{
		ID: r.PathValue("id"),
	}, projections.ListHistoryDeps{MailStore: a.stores.MailStore})
	if err != nil {
		if errors.Is(err, mailStore.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse{Message: "mail record not found"})
			return
		}
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recordResponse{Success: true, Data: rec})
}
