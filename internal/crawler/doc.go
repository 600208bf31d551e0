// Package crawler defines the shared types and collaborator interfaces of the
// crawling engine, plus the small pure helpers (content classification, object
// naming, retry policy) that the worker pipeline relies on.
package crawler
