package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dudoxx/dudoxx-api/internal/domain"
	"github.com/dudoxx/dudoxx-api/internal/provider"
)

// relevantSnippets is how many search snippets feed each summary prompt.
const relevantSnippets = 3

const drugPrompt = `Provide a comprehensive summary of the drug %s, including the following information:
1. Description
2. Dosage
3. Side effects

Base your summary on the following information:
%s

Format the summary as a JSON object with the keys: description, dosage, side_effects.`

const diseasePrompt = `Provide a comprehensive summary of the disease %s, including the following information:
1. Description
2. Symptoms
3. Causes

Base your summary on the following information:
%s

Format the summary as a JSON object with the keys: description, symptoms, causes.`

const interactionsPrompt = `Summarize the drug interactions for %s based on the following information:
%s

Provide the summary as a simple string.`

const treatmentsPrompt = `Summarize the treatments for %s based on the following information:
%s

Provide the summary as a simple string.`

// JSONCache is the subset of the cache store lookups use.
type JSONCache interface {
	GetJSON(ctx context.Context, key string, dest any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
}

// LookupService answers drug and disease questions from web search results.
type LookupService interface {
	DrugInfo(ctx context.Context, name string, includeInteractions bool) (*domain.DrugInfo, error)
	DiseaseInfo(ctx context.Context, name string, includeTreatments bool) (*domain.DiseaseInfo, error)
}

// LookupDeps lists the collaborators of the lookup service.
type LookupDeps struct {
	Searcher   provider.WebSearcher
	Embedder   provider.Embedder
	Chat       provider.ChatCompleter
	Cache      JSONCache
	CacheTTL   time.Duration
	MaxResults int
	Logger     *slog.Logger
}

type lookupService struct {
	deps   LookupDeps
	logger *slog.Logger
}

var _ LookupService = (*lookupService)(nil)

// NewLookupService validates deps and returns a LookupService.
func NewLookupService(deps LookupDeps) (LookupService, error) {
	switch {
	case deps.Searcher == nil:
		return nil, errors.New("web searcher cannot be nil")
	case deps.Embedder == nil:
		return nil, errors.New("embedder cannot be nil")
	case deps.Chat == nil:
		return nil, errors.New("chat completer cannot be nil")
	case deps.Cache == nil:
		return nil, errors.New("cache cannot be nil")
	case deps.Logger == nil:
		return nil, errors.New("logger cannot be nil")
	}
	if deps.MaxResults <= 0 {
		deps.MaxResults = 5
	}
	return &lookupService{deps: deps, logger: deps.Logger.With("component", "lookup_service")}, nil
}

// DrugCacheKey is where a drug lookup is cached.
func DrugCacheKey(name string, includeInteractions bool) string {
	return "drug_info:" + name + ":" + strconv.FormatBool(includeInteractions)
}

// DiseaseCacheKey is where a disease lookup is cached.
func DiseaseCacheKey(name string, includeTreatments bool) string {
	return "disease_info:" + name + ":" + strconv.FormatBool(includeTreatments)
}

// DrugInfo summarizes name from a web search, optionally with interactions.
func (s *lookupService) DrugInfo(ctx context.Context, name string, includeInteractions bool) (*domain.DrugInfo, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyQuery
	}

	key := DrugCacheKey(name, includeInteractions)
	var cached domain.DrugInfo
	if s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	query := name + " drug information"
	results, err := s.deps.Searcher.Search(ctx, query, s.deps.MaxResults)
	if err != nil {
		return nil, NewServiceError("lookup", "drug_info", err)
	}

	var summary struct {
		Description flexText `json:"description"`
		Dosage      flexText `json:"dosage"`
		SideEffects flexText `json:"side_effects"`
	}
	if err := s.summarize(ctx, drugPrompt, query, results, &summary); err != nil {
		return nil, NewServiceError("lookup", "drug_info", err)
	}

	info := &domain.DrugInfo{
		Name:        name,
		Description: string(summary.Description),
		Dosage:      string(summary.Dosage),
		SideEffects: string(summary.SideEffects),
	}
	if includeInteractions {
		text, err := s.plainSummary(ctx, interactionsPrompt, name+" drug interactions", results)
		if err != nil {
			return nil, NewServiceError("lookup", "drug_interactions", err)
		}
		info.Interactions = &text
	}

	s.cacheSet(ctx, key, info)
	return info, nil
}

// DiseaseInfo summarizes name from a web search, optionally with treatments.
func (s *lookupService) DiseaseInfo(ctx context.Context, name string, includeTreatments bool) (*domain.DiseaseInfo, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyQuery
	}

	key := DiseaseCacheKey(name, includeTreatments)
	var cached domain.DiseaseInfo
	if s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	query := name + " disease information"
	results, err := s.deps.Searcher.Search(ctx, query, s.deps.MaxResults)
	if err != nil {
		return nil, NewServiceError("lookup", "disease_info", err)
	}

	var summary struct {
		Description flexText `json:"description"`
		Symptoms    flexText `json:"symptoms"`
		Causes      flexText `json:"causes"`
	}
	if err := s.summarize(ctx, diseasePrompt, query, results, &summary); err != nil {
		return nil, NewServiceError("lookup", "disease_info", err)
	}

	info := &domain.DiseaseInfo{
		Name:        name,
		Description: string(summary.Description),
		Symptoms:    string(summary.Symptoms),
		Causes:      string(summary.Causes),
	}
	if includeTreatments {
		text, err := s.plainSummary(ctx, treatmentsPrompt, name+" disease treatments", results)
		if err != nil {
			return nil, NewServiceError("lookup", "disease_treatments", err)
		}
		info.Treatments = &text
	}

	s.cacheSet(ctx, key, info)
	return info, nil
}

// summarize asks for a JSON summary of the snippets most relevant to query and decodes it into dest.
func (s *lookupService) summarize(ctx context.Context, prompt, query string, results []domain.SearchResult, dest any) error {
	docs, err := s.relevantDocs(ctx, query, results)
	if err != nil {
		return err
	}
	answer, err := s.deps.Chat.Complete(ctx, provider.ChatRequest{
		Prompt: fmt.Sprintf(prompt, query, docs),
		JSON:   true,
	})
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(stripCodeFence(answer)), dest); err != nil {
		s.logger.WarnContext(ctx, "unparseable lookup summary", "query", query, "error", err)
		return fmt.Errorf("%w: %v", ErrSummaryParse, err)
	}
	return nil
}

func (s *lookupService) plainSummary(ctx context.Context, prompt, query string, results []domain.SearchResult) (string, error) {
	docs, err := s.relevantDocs(ctx, query, results)
	if err != nil {
		return "", err
	}
	answer, err := s.deps.Chat.Complete(ctx, provider.ChatRequest{Prompt: fmt.Sprintf(prompt, query, docs)})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(answer), nil
}

// relevantDocs joins the snippets nearest to query by embedding similarity.
func (s *lookupService) relevantDocs(ctx context.Context, query string, results []domain.SearchResult) (string, error) {
	snippets := make([]string, 0, len(results))
	for _, r := range results {
		if strings.TrimSpace(r.Snippet) != "" {
			snippets = append(snippets, r.Snippet)
		}
	}
	if len(snippets) <= relevantSnippets {
		return strings.Join(snippets, " "), nil
	}

	vectors, err := s.deps.Embedder.Embed(ctx, append([]string{query}, snippets...))
	if err != nil {
		return "", err
	}
	if len(vectors) != len(snippets)+1 {
		return "", fmt.Errorf("embedder returned %d vectors for %d texts", len(vectors), len(snippets)+1)
	}

	order := make([]int, len(snippets))
	scores := make([]float64, len(snippets))
	for i := range snippets {
		order[i] = i
		scores[i] = cosine(vectors[0], vectors[i+1])
	}
	sort.SliceStable(order, func(a, b int) bool { return scores[order[a]] > scores[order[b]] })

	top := make([]string, 0, relevantSnippets)
	for _, i := range order[:relevantSnippets] {
		top = append(top, snippets[i])
	}
	return strings.Join(top, " "), nil
}

func (s *lookupService) cacheGet(ctx context.Context, key string, dest any) bool {
	found, err := s.deps.Cache.GetJSON(ctx, key, dest)
	if err != nil {
		s.logger.WarnContext(ctx, "lookup cache read failed", "key", key, "error", err)
		return false
	}
	return found
}

func (s *lookupService) cacheSet(ctx context.Context, key string, value any) {
	if err := s.deps.Cache.SetJSON(ctx, key, value, s.deps.CacheTTL); err != nil {
		s.logger.WarnContext(ctx, "lookup cache write failed", "key", key, "error", err)
	}
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// stripCodeFence removes a ```json fence some models wrap JSON answers in.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// flexText accepts a JSON string, a list of strings or any other value and
// keeps it as text. Models do not always answer "side_effects" with a string.
type flexText string

func (f *flexText) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexText(s)
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*f = flexText(strings.Join(list, ", "))
		return nil
	}
	if string(data) == "null" {
		*f = ""
		return nil
	}
	*f = flexText(strings.TrimSpace(string(data)))
	return nil
}
