// Package http exposes formflow over HTTP.
//
// The chi router serves the author endpoints (flow CRUD, validation, the
// derived node/edge graph and editor gestures) and the respondent endpoints
// (resolve, score, progress). Client is the matching answer sink used by the
// auto-save pipeline.
package http
