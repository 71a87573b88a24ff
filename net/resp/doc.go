// Package resp writes the JSON envelopes of the HTTP surface.
//
// A success writes its data as is, or {"message": ...} when there is none.
// A failure writes {"code", "message", "errors"} with the HTTP status of
// the Exception:
//
//	resp.Fail(w, resp.NotFound(ecode.NotExist("index")))
//	resp.Success(w, result)
package resp
