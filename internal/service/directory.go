package service

import (
	"context"
	"errors"

	"company-service/internal/model"
	"company-service/internal/repository"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// SearchParams describes a directory search. Query is the mandatory keyword
// for `q`-style searches; City and Keyword form the optional-filter variant
// where absent filters act as wildcards.
type SearchParams struct {
	Query   string
	City    string
	Keyword string
	Page    int
	Limit   int
}

// Pagination accompanies every search result page.
type Pagination struct {
	CurrentPage  int   `json:"currentPage"`
	TotalPages   int   `json:"totalPages"`
	TotalItems   int64 `json:"totalItems"`
	ItemsPerPage int   `json:"itemsPerPage"`
}

// DirectoryService serves the read-only lookup and search paths. It depends
// on the store alone, not on any of the credential logic.
type DirectoryService struct {
	companies repository.CompanyRepository
}

// NewDirectoryService constructs the directory read service.
func NewDirectoryService(companies repository.CompanyRepository) *DirectoryService {
	return &DirectoryService{companies: companies}
}

// GetByID returns a single company, password stripped.
func (s *DirectoryService) GetByID(ctx context.Context, id uint) (*model.Company, error) {
	company, err := s.companies.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return company.Sanitized(), nil
}

// GetByCode returns a single company by its company code, password stripped.
func (s *DirectoryService) GetByCode(ctx context.Context, code string) (*model.Company, error) {
	company, err := s.companies.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return company.Sanitized(), nil
}

// List returns all companies, newest first, passwords stripped.
func (s *DirectoryService) List(ctx context.Context) ([]model.Company, error) {
	companies, err := s.companies.List(ctx)
	if err != nil {
		return nil, err
	}
	stripPasswords(companies)
	return companies, nil
}

// Search runs a paginated directory search. With a Query it matches
// case-insensitive substrings over name, code, email and role; without one
// it falls back to the city/keyword filters, treating absent filters as
// wildcards. All of query, city and keyword empty is an error.
func (s *DirectoryService) Search(ctx context.Context, params SearchParams) ([]model.Company, Pagination, error) {
	if params.Query == "" && params.City == "" && params.Keyword == "" {
		return nil, Pagination{}, ErrMissingQuery
	}

	page := params.Page
	if page <= 0 {
		page = 1
	}
	limit := params.Limit
	if limit <= 0 || limit > maxPageSize {
		limit = defaultPageSize
	}

	// The keyword filter searches the same columns as q.
	query := params.Query
	if query == "" {
		query = params.Keyword
	}

	companies, total, err := s.companies.Search(ctx, repository.SearchFilter{
		Query:  query,
		City:   params.City,
		Limit:  limit,
		Offset: (page - 1) * limit,
	})
	if err != nil {
		return nil, Pagination{}, err
	}

	stripPasswords(companies)
	return companies, Pagination{
		CurrentPage:  page,
		TotalPages:   int((total + int64(limit) - 1) / int64(limit)),
		TotalItems:   total,
		ItemsPerPage: limit,
	}, nil
}

func stripPasswords(companies []model.Company) {
	for i := range companies {
		companies[i].Password = ""
	}
}
