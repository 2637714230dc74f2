package slackapi

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/jmylchreest/go-slackpurge/internal/errs"
	"github.com/jmylchreest/go-slackpurge/pkg/httpclient"
)

const (
	methodFilesList   = "files.list"
	methodFilesDelete = "files.delete"
)

// ListFiles returns the files created at or before the given instant. Only the first page
// of results is fetched.
func (c *Client) ListFiles(ctx context.Context, before time.Time) ([]File, error) {
	form := url.Values{}
	form.Set("token", c.token)
	form.Set("ts_to", strconv.FormatInt(before.Unix(), 10))

	var listResp FileListResponse
	if err := c.call(ctx, methodFilesList, form, &listResp); err != nil {
		var statusErr *httpclient.StatusError
		if errors.As(err, &statusErr) {
			return nil, errs.Wrap(errs.CodeNetwork, methodFilesList, err)
		}
		return nil, err
	}

	if listResp.rejected() {
		return nil, errs.New(errs.CodeRemoteRejection, methodFilesList, rejectionReason(listResp.Error))
	}
	if listResp.Files == nil {
		return nil, errs.New(errs.CodeParse, methodFilesList, "response has no files field")
	}

	files := *listResp.Files
	c.logger.DebugContext(ctx, "retrieved files",
		"count", len(files),
		"ts_to", before.Unix())
	if listResp.Paging != nil && listResp.Paging.Pages > 1 {
		c.logger.WarnContext(ctx, "listing has more pages than were fetched",
			"pages", listResp.Paging.Pages,
			"total", listResp.Paging.Total)
	}

	return files, nil
}

// NewDeleteRequest builds the files.delete request for one file. It performs no I/O.
func (c *Client) NewDeleteRequest(ctx context.Context, fileID string) (*http.Request, error) {
	form := url.Values{}
	form.Set("file", fileID)
	form.Set("token", c.token)

	return httpclient.NewFormRequest(ctx, c.methodURL(methodFilesDelete), form, c.headers(map[string]string{
		"Cache-Control": "no-cache",
	}))
}

// DeleteFile removes a single file. Only a 2xx reply that is not an explicit
// "ok": false counts as success.
func (c *Client) DeleteFile(ctx context.Context, fileID string) error {
	req, err := c.NewDeleteRequest(ctx, fileID)
	if err != nil {
		return errs.Wrap(errs.CodeInvalidArgument, methodFilesDelete, err)
	}

	var delResp DeleteResponse
	if err := c.send(ctx, methodFilesDelete, req, &delResp); err != nil {
		var statusErr *httpclient.StatusError
		switch {
		case errors.As(err, &statusErr):
			return errs.Wrap(errs.CodeRemoteRejection, methodFilesDelete, err)
		case errs.Is(err, errs.CodeParse):
			// status was 2xx and the body arrived whole; it just isn't JSON
			c.logger.WarnContext(ctx, "unreadable delete response, treating as deleted",
				"file", fileID,
				"error", err)
			return nil
		default:
			return err
		}
	}

	if delResp.rejected() {
		return errs.New(errs.CodeRemoteRejection, methodFilesDelete, rejectionReason(delResp.Error))
	}

	c.logger.DebugContext(ctx, "deleted file", "file", fileID)
	return nil
}

func rejectionReason(code string) string {
	if code == "" {
		return "request rejected"
	}
	return code
}
