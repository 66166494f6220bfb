// Package domain contains the entities and value objects shared by the
// service, task and storage layers: API keys, isolation contexts, document
// chunks, RAG answers, lookup results, speech voices and accepted media types.
//
// Nothing here performs IO.
package domain
