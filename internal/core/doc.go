// Package core is the contact service's business layer, independent of
// HTTP. Web handlers and the import CLI both call into it.
//
// Two operations matter:
//
//   - [Service.SubmitContact] validates one browser form submission with
//     the form rules and stores it.
//   - [Service.RunImport] and its file and reader variants push a CSV
//     source through an [ingest.Pipeline] under the [RunLimiter], and
//     return the run's Summary or an *ingest.AbortError.
//
// User-facing messages for every error either operation can return come
// from [MapError].
package core
