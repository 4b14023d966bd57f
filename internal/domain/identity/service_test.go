package identity

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
)

type mockPatientRepo struct {
	patients map[uuid.UUID]*Patient
}

func newMockPatientRepo() *mockPatientRepo {
	return &mockPatientRepo{patients: make(map[uuid.UUID]*Patient)}
}

func (m *mockPatientRepo) Create(_ context.Context, p *Patient) error {
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	p.UpdatedAt = time.Now()
	m.patients[p.ID] = p
	return nil
}

func (m *mockPatientRepo) GetByID(_ context.Context, id uuid.UUID) (*Patient, error) {
	p, ok := m.patients[id]
	if !ok {
		return nil, ErrNotFound
	}
	return p, nil
}

func (m *mockPatientRepo) GetByMRN(_ context.Context, mrn string) (*Patient, error) {
	for _, p := range m.patients {
		if p.MRN == mrn {
			return p, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockPatientRepo) Update(_ context.Context, p *Patient) error {
	if _, ok := m.patients[p.ID]; !ok {
		return fmt.Errorf("not found")
	}
	m.patients[p.ID] = p
	return nil
}

func (m *mockPatientRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.patients, id)
	return nil
}

func (m *mockPatientRepo) Search(_ context.Context, _ map[string]string, limit, offset int) ([]*Patient, int, error) {
	var result []*Patient
	for _, p := range m.patients {
		result = append(result, p)
	}
	return result, len(result), nil
}

func TestCreatePatient(t *testing.T) {
	svc := NewService(newMockPatientRepo())

	p := &Patient{MRN: "MRN-001", FirstName: "Jane", LastName: "Doe"}
	if err := svc.CreatePatient(context.Background(), p); err != nil {
		t.Fatalf("CreatePatient: %v", err)
	}
	if p.ID == uuid.Nil {
		t.Error("expected ID to be assigned")
	}
	if p.Gender != "unknown" {
		t.Errorf("expected default gender unknown, got %s", p.Gender)
	}
	if !p.Active {
		t.Error("expected new patient to be active")
	}
}

func TestCreatePatientValidation(t *testing.T) {
	svc := NewService(newMockPatientRepo())

	if err := svc.CreatePatient(context.Background(), &Patient{LastName: "Doe"}); err == nil {
		t.Error("expected error for missing mrn")
	}
	if err := svc.CreatePatient(context.Background(), &Patient{MRN: "MRN-002"}); err == nil {
		t.Error("expected error for missing last_name")
	}
	if err := svc.CreatePatient(context.Background(), &Patient{MRN: "MRN-003", LastName: "Doe", Gender: "bogus"}); err == nil {
		t.Error("expected error for invalid gender")
	}
	w := -5.0
	if err := svc.CreatePatient(context.Background(), &Patient{MRN: "MRN-004", LastName: "Doe", WeightKg: &w}); err == nil {
		t.Error("expected error for negative weight")
	}
}

func TestGetPatientNotFound(t *testing.T) {
	svc := NewService(newMockPatientRepo())
	if _, err := svc.GetPatient(context.Background(), uuid.New()); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestAgeYears(t *testing.T) {
	now := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		birth *time.Time
		want  int
	}{
		{"nil birth date", nil, -1},
		{"birthday passed this year", datePtr(2000, 3, 1), 25},
		{"birthday later this year", datePtr(2000, 9, 1), 24},
		{"birthday today", datePtr(2007, 6, 15), 18},
		{"birthday tomorrow", datePtr(2007, 6, 16), 17},
		{"infant", datePtr(2025, 1, 10), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Patient{BirthDate: tt.birth}
			if got := p.AgeYears(now); got != tt.want {
				t.Errorf("AgeYears() = %d, want %d", got, tt.want)
			}
		})
	}
}

func datePtr(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}
