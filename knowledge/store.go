package knowledge

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"leaddesk/db"
	"leaddesk/models"

	"github.com/jinzhu/gorm"
	"go.uber.org/zap"
)

var (
	ErrSnippetNotFound = errors.New("knowledge snippet not found")
	ErrInvalidSnippet  = errors.New("title and content are required")
)

// Store searches operator-managed KnowledgeSnippet rows. With an Embedder
// it ranks by cosine similarity over stored embeddings; without one, or when
// embedding the query fails, it falls back to keyword overlap.
type Store struct {
	db       *gorm.DB
	embedder Embedder
	minScore float64
	log      *zap.Logger
}

func NewStore(conn *gorm.DB, embedder Embedder, minScore float64, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{db: conn, embedder: embedder, minScore: minScore, log: log.With(zap.String("service", "knowledge"))}
}

func (s *Store) Search(ctx context.Context, query string, topK int) ([]Snippet, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if s.embedder != nil {
		res, err := s.searchEmbeddings(ctx, query, topK)
		if err == nil {
			return res, nil
		}
		s.log.Debug("embedding search failed, using keywords", zap.Error(err))
	}
	return s.searchKeywords(ctx, query, topK)
}

type scoredSnippet struct {
	Item  models.KnowledgeSnippet
	Score float64
}

func (s *Store) searchEmbeddings(ctx context.Context, query string, topK int) ([]Snippet, error) {
	qEmb, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}

	var items []models.KnowledgeSnippet
	if err := s.db.Where("embedding IS NOT NULL AND embedding != ''").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("load snippets: %w", err)
	}

	scored := make([]scoredSnippet, 0, len(items))
	for _, it := range items {
		emb, err := parseEmbedding(it.Embedding)
		if err != nil {
			continue
		}
		sc, ok := cosineSimilarity(qEmb, emb)
		if !ok || sc < s.minScore {
			continue
		}
		scored = append(scored, scoredSnippet{Item: it, Score: sc})
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })

	s.log.Debug("rag candidates", zap.Int("stored", len(items)), zap.Int("selected", len(scored)),
		zap.Float64("threshold", s.minScore))
	return toSnippets(scored, topK, "embedding"), nil
}

func (s *Store) searchKeywords(ctx context.Context, query string, topK int) ([]Snippet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	terms := queryTerms(query)
	if len(terms) == 0 {
		return nil, nil
	}

	var items []models.KnowledgeSnippet
	if err := s.db.Find(&items).Error; err != nil {
		return nil, fmt.Errorf("load snippets: %w", err)
	}
	scored := make([]scoredSnippet, 0, len(items))
	for _, it := range items {
		sc := keywordScore(terms, splitKeywords(it.Keywords), it.Title+" "+it.Content)
		if sc <= 0 {
			continue
		}
		scored = append(scored, scoredSnippet{Item: it, Score: sc})
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	return toSnippets(scored, topK, "keywords"), nil
}

func toSnippets(scored []scoredSnippet, topK int, source string) []Snippet {
	if topK > 0 && len(scored) > topK {
		scored = scored[:topK]
	}
	out := make([]Snippet, 0, len(scored))
	for _, sc := range scored {
		out = append(out, Snippet{
			Title:  sc.Item.Title,
			Text:   sc.Item.Content,
			Score:  sc.Score,
			Source: source,
		})
	}
	return out
}

func splitKeywords(s string) []string {
	var out []string
	for _, k := range strings.Split(s, ",") {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	return out
}

/************************************************
/**** MARK: ADMIN ****/
/************************************************/

// Create stores a snippet, embedding its content when an Embedder is set.
// An embedding failure is logged; the snippet stays searchable by keywords.
func (s *Store) Create(ctx context.Context, item *models.KnowledgeSnippet) error {
	item.Title = strings.TrimSpace(item.Title)
	item.Content = strings.TrimSpace(item.Content)
	if item.Title == "" || item.Content == "" {
		return ErrInvalidSnippet
	}
	if strings.TrimSpace(item.Category) == "" {
		item.Category = "general"
	}
	if s.embedder != nil && item.Embedding == "" {
		if emb, err := s.embedder.Embed(ctx, item.Title+"\n"+item.Content); err != nil {
			s.log.Warn("embed snippet failed", zap.String("title", item.Title), zap.Error(err))
		} else if enc, err := encodeEmbedding(emb); err == nil {
			item.Embedding = enc
		}
	}
	return s.db.Create(item).Error
}

func (s *Store) List(ctx context.Context, category string) ([]models.KnowledgeSnippet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	q := s.db.Order("id asc")
	if category = strings.TrimSpace(category); category != "" {
		q = q.Where("category = ?", category)
	}
	var out []models.KnowledgeSnippet
	err := q.Find(&out).Error
	return out, err
}

func (s *Store) Get(ctx context.Context, id int64) (*models.KnowledgeSnippet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var item models.KnowledgeSnippet
	if err := s.db.First(&item, id).Error; err != nil {
		if db.IsNotFound(err) {
			return nil, ErrSnippetNotFound
		}
		return nil, err
	}
	return &item, nil
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	res := s.db.Where("id = ?", id).Delete(&models.KnowledgeSnippet{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrSnippetNotFound
	}
	return nil
}
