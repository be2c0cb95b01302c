package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"company-service/internal/model"
	"company-service/internal/repository"
)

// memoryCompanyRepo is a mutex-guarded CompanyRepository that enforces the
// same uniqueness rules as the real store, so registration races behave like
// they do against the unique indexes.
type memoryCompanyRepo struct {
	mu        sync.Mutex
	seq       uint
	companies map[uint]model.Company
}

func newMemoryCompanyRepo() *memoryCompanyRepo {
	return &memoryCompanyRepo{companies: map[uint]model.Company{}}
}

func (r *memoryCompanyRepo) Create(_ context.Context, company *model.Company) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.companies {
		if existing.CompanyCode == company.CompanyCode {
			return repository.ErrDuplicate
		}
		if existing.Email != nil && company.Email != nil && *existing.Email == *company.Email {
			return repository.ErrDuplicate
		}
	}

	r.seq++
	company.ID = r.seq
	if company.CreatedAt.IsZero() {
		company.CreatedAt = time.Now()
	}
	company.UpdatedAt = company.CreatedAt
	r.companies[company.ID] = *company
	return nil
}

func (r *memoryCompanyRepo) find(match func(model.Company) bool) (*model.Company, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, company := range r.companies {
		if match(company) {
			c := company
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memoryCompanyRepo) GetByID(_ context.Context, id uint) (*model.Company, error) {
	return r.find(func(c model.Company) bool { return c.ID == id })
}

func (r *memoryCompanyRepo) GetByCode(_ context.Context, code string) (*model.Company, error) {
	return r.find(func(c model.Company) bool { return c.CompanyCode == code })
}

func (r *memoryCompanyRepo) GetByEmail(_ context.Context, email string) (*model.Company, error) {
	return r.find(func(c model.Company) bool { return c.Email != nil && *c.Email == email })
}

func (r *memoryCompanyRepo) GetByIdentifier(_ context.Context, identifier string) (*model.Company, error) {
	return r.find(func(c model.Company) bool {
		return c.CompanyCode == identifier || (c.Email != nil && *c.Email == identifier)
	})
}

func (r *memoryCompanyRepo) GetByContactNumber(_ context.Context, mobile string) (*model.Company, error) {
	return r.find(func(c model.Company) bool { return c.ContactNumber == mobile })
}

func (r *memoryCompanyRepo) CodeExists(_ context.Context, code string) (bool, error) {
	_, err := r.GetByCode(context.Background(), code)
	return err == nil, nil
}

func (r *memoryCompanyRepo) EmailExists(_ context.Context, email string) (bool, error) {
	_, err := r.GetByEmail(context.Background(), email)
	return err == nil, nil
}

func (r *memoryCompanyRepo) List(_ context.Context) ([]model.Company, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Company, 0, len(r.companies))
	for _, company := range r.companies {
		out = append(out, company)
	}
	sortNewestFirst(out)
	return out, nil
}

func (r *memoryCompanyRepo) Search(_ context.Context, filter repository.SearchFilter) ([]model.Company, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	matches := func(c model.Company) bool {
		if filter.Query != "" {
			q := strings.ToLower(filter.Query)
			email := ""
			if c.Email != nil {
				email = *c.Email
			}
			hit := strings.Contains(strings.ToLower(c.CompanyName), q) ||
				strings.Contains(strings.ToLower(c.CompanyCode), q) ||
				strings.Contains(strings.ToLower(email), q) ||
				strings.Contains(strings.ToLower(c.Role), q)
			if !hit {
				return false
			}
		}
		if filter.City != "" && !strings.Contains(strings.ToLower(c.City), strings.ToLower(filter.City)) {
			return false
		}
		return true
	}

	var all []model.Company
	for _, company := range r.companies {
		if matches(company) {
			all = append(all, company)
		}
	}
	sortNewestFirst(all)

	total := int64(len(all))
	start := filter.Offset
	if start > len(all) {
		start = len(all)
	}
	end := start + filter.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (r *memoryCompanyRepo) UpdateFields(_ context.Context, id uint, fields map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	company, ok := r.companies[id]
	if !ok {
		return repository.ErrNotFound
	}
	for key, value := range fields {
		str, _ := value.(string)
		switch key {
		case "company_name":
			company.CompanyName = str
		case "contact_number":
			company.ContactNumber = str
		case "address":
			company.Address = str
		case "city":
			company.City = str
		case "state":
			company.State = str
		case "country":
			company.Country = str
		case "role":
			company.Role = str
		case "description":
			company.Description = str
		case "photo_url":
			company.PhotoURL = str
		}
	}
	company.UpdatedAt = time.Now()
	r.companies[id] = company
	return nil
}

func (r *memoryCompanyRepo) UpdatePassword(_ context.Context, email, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, company := range r.companies {
		if company.Email != nil && *company.Email == email {
			company.Password = hash
			r.companies[id] = company
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *memoryCompanyRepo) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.companies)), nil
}

func sortNewestFirst(companies []model.Company) {
	sort.Slice(companies, func(i, j int) bool {
		if companies[i].CreatedAt.Equal(companies[j].CreatedAt) {
			return companies[i].ID > companies[j].ID
		}
		return companies[i].CreatedAt.After(companies[j].CreatedAt)
	})
}

// memoryOTPRepo keeps issued OTPs in insertion order.
type memoryOTPRepo struct {
	mu   sync.Mutex
	seq  uint
	otps []model.OTPRequest
}

func (r *memoryOTPRepo) Create(_ context.Context, otp *model.OTPRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	otp.ID = r.seq
	r.otps = append(r.otps, *otp)
	return nil
}

func (r *memoryOTPRepo) Latest(_ context.Context, mobile string) (*model.OTPRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.otps) - 1; i >= 0; i-- {
		if r.otps[i].Mobile == mobile {
			otp := r.otps[i]
			return &otp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memoryOTPRepo) MarkVerified(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.otps {
		if r.otps[i].ID == id {
			if r.otps[i].VerifiedAt != nil {
				return repository.ErrNotFound
			}
			now := time.Now()
			r.otps[i].VerifiedAt = &now
			return nil
		}
	}
	return repository.ErrNotFound
}

// spyHasher counts invocations so tests can assert ordering guarantees,
// while keeping hashing trivially reversible for assertions.
type spyHasher struct {
	mu          sync.Mutex
	hashCalls   int
	verifyCalls int
}

func (h *spyHasher) Hash(plain string) (string, error) {
	h.mu.Lock()
	h.hashCalls++
	h.mu.Unlock()
	return "hashed:" + plain, nil
}

func (h *spyHasher) Verify(plain, hash string) bool {
	h.mu.Lock()
	h.verifyCalls++
	h.mu.Unlock()
	return hash == "hashed:"+plain
}
