// Package docapi provides an HTTP client for the remote document API.
//
// # Overview
//
// The document service stores shareable text documents addressed by a short
// share id. editer consumes three endpoints:
//
//	GET  /api/v1/documents/{shareId}   fetch a document
//	POST /api/v1/documents             create one, assigning a share id
//	PUT  /api/v1/documents/{shareId}   replace its content
//
// Every endpoint answers with the same payload:
//
//	{"id": "...", "share_id": "abc123", "content": "...",
//	 "created_at": "2024-01-01T00:00:00", "updated_at": "..."}
//
// # Client Usage
//
//	client, err := docapi.NewClient("http://localhost:8000")
//	if err != nil {
//		return err
//	}
//	doc, err := client.CreateDocument(ctx, "hello")
//	if err != nil {
//		return err
//	}
//	_, err = client.UpdateDocument(ctx, doc.ShareID, "hello, world")
//
// # Errors
//
// Two error types describe what went wrong at the HTTP boundary:
//
//   - *StatusError: the server answered with a non-2xx status. The "detail"
//     field of the error body, when present, is kept in Detail.
//   - *RequestError: no response at all (connection refused, DNS failure,
//     timeout). It unwraps to the transport error, so net.Error and
//     context.DeadlineExceeded checks keep working.
//
// Anything else is a local encode/decode problem. The failure package maps
// all of these onto user-facing messages.
//
// # Timestamps
//
// The server may emit timestamps without a zone offset. Timestamp accepts
// RFC 3339 as well as zone-less ISO-8601 values, which are read as UTC.
//
// # Testing
//
// Package docapitest runs an in-memory implementation of the API for tests
// of code built on top of DocumentService.
package docapi
