// Package ecode defines the business codes of API error envelopes and
// their messages.
//
//	resp.Fail(w, &resp.Exception{
//	    Status:  ecode.ToHTTPStatus(ecode.IndexNotFound),
//	    Code:    ecode.IndexNotFound,
//	    Message: ecode.Text(ecode.IndexNotFound),
//	})
//
// Codes follow the numbering below:
//   - 0: success
//   - -100 to -199: authentication
//   - -400 to -599: request, resource and server errors (mirroring HTTP)
//   - -1000 and below: search errors
package ecode
