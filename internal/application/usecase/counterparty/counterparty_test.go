package counterparty

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/opsledger/backend/internal/domain/entity"
	domainerror "github.com/opsledger/backend/internal/domain/error"
)

type fakeCounterpartyRepo struct {
	rows map[uuid.UUID]*entity.Counterparty
}

func newFakeRepo() *fakeCounterpartyRepo {
	return &fakeCounterpartyRepo{rows: map[uuid.UUID]*entity.Counterparty{}}
}

func (f *fakeCounterpartyRepo) Create(_ context.Context, c *entity.Counterparty) error {
	f.rows[c.ID] = c
	return nil
}

func (f *fakeCounterpartyRepo) FindByID(_ context.Context, tenantID, id uuid.UUID) (*entity.Counterparty, error) {
	c, ok := f.rows[id]
	if !ok || c.TenantID != tenantID {
		return nil, domainerror.ErrCounterpartyNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeCounterpartyRepo) FindByTenant(_ context.Context, tenantID uuid.UUID) ([]*entity.Counterparty, error) {
	var out []*entity.Counterparty
	for _, c := range f.rows {
		if c.TenantID == tenantID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeCounterpartyRepo) FindByPhone(context.Context, string) ([]*entity.Counterparty, error) {
	return nil, nil
}

func (f *fakeCounterpartyRepo) Update(_ context.Context, c *entity.Counterparty) error {
	f.rows[c.ID] = c
	return nil
}

func (f *fakeCounterpartyRepo) Delete(_ context.Context, _ uuid.UUID, id uuid.UUID) error {
	delete(f.rows, id)
	return nil
}

func TestCreateCounterpartyUseCase(t *testing.T) {
	tenant := uuid.New()

	tests := []struct {
		name      string
		input     string
		phone     string
		wantCode  domainerror.CounterpartyErrorCode
		wantName  string
		wantPhone string
	}{
		{name: "valid", input: "  Ana Souza ", phone: "+55 (11) 98765-4321", wantName: "Ana Souza", wantPhone: "11987654321"},
		{name: "blank name", input: "   ", wantCode: domainerror.ErrCodeMissingCounterpartyName},
		{name: "too long", input: strings.Repeat("a", MaxCounterpartyNameLength+1), wantCode: domainerror.ErrCodeCounterpartyNameTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeRepo()
			uc := NewCreateCounterpartyUseCase(repo)

			out, err := uc.Execute(context.Background(), CreateCounterpartyInput{TenantID: tenant, Name: tt.input, Phone: tt.phone})
			if tt.wantCode != "" {
				var cpErr *domainerror.CounterpartyError
				if !errors.As(err, &cpErr) || cpErr.Code != tt.wantCode {
					t.Fatalf("expected code %s, got %v", tt.wantCode, err)
				}
				if len(repo.rows) != 0 {
					t.Error("nothing should be stored on validation failure")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if out.Counterparty.Name != tt.wantName || out.Counterparty.Phone != tt.wantPhone {
				t.Errorf("got %q/%q, want %q/%q", out.Counterparty.Name, out.Counterparty.Phone, tt.wantName, tt.wantPhone)
			}
		})
	}
}

func TestUpdateAndDeleteCounterparty(t *testing.T) {
	ctx := context.Background()
	tenant := uuid.New()
	repo := newFakeRepo()
	existing := entity.NewCounterparty(tenant, "Bruno", "")
	repo.rows[existing.ID] = existing

	name := "Bruno Lima"
	out, err := NewUpdateCounterpartyUseCase(repo).Execute(ctx, UpdateCounterpartyInput{
		TenantID:       tenant,
		CounterpartyID: existing.ID,
		Name:           &name,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Counterparty.Name != "Bruno Lima" {
		t.Errorf("expected renamed counterparty, got %q", out.Counterparty.Name)
	}

	_, err = NewUpdateCounterpartyUseCase(repo).Execute(ctx, UpdateCounterpartyInput{
		TenantID:       uuid.New(),
		CounterpartyID: existing.ID,
		Name:           &name,
	})
	if !errors.Is(err, domainerror.ErrCounterpartyNotFound) {
		t.Errorf("expected not found for another tenant, got %v", err)
	}

	if err := NewDeleteCounterpartyUseCase(repo).Execute(ctx, DeleteCounterpartyInput{TenantID: tenant, CounterpartyID: existing.ID}); err != nil {
		t.Fatalf("unexpected delete error: %v", err)
	}
	list, err := NewListCounterpartiesUseCase(repo).Execute(ctx, ListCounterpartiesInput{TenantID: tenant})
	if err != nil {
		t.Fatalf("unexpected list error: %v", err)
	}
	if len(list.Counterparties) != 0 {
		t.Errorf("expected empty directory, got %d", len(list.Counterparties))
	}
}
