package medication

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

type Service struct {
	orders        OrderRepository
	prescriptions PrescriptionRepository
}

func NewService(orders OrderRepository, prescriptions PrescriptionRepository) *Service {
	return &Service{orders: orders, prescriptions: prescriptions}
}

// -- MedicationOrder --

func (s *Service) CreateOrder(ctx context.Context, o *MedicationOrder) error {
	if o.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if o.Details == "" {
		return fmt.Errorf("details is required")
	}
	if o.Status == "" {
		o.Status = "pending"
	}
	if !ValidOrderStatuses[o.Status] {
		return fmt.Errorf("invalid status: %s", o.Status)
	}
	return s.orders.Create(ctx, o)
}

func (s *Service) GetOrder(ctx context.Context, id uuid.UUID) (*MedicationOrder, error) {
	return s.orders.GetByID(ctx, id)
}

func (s *Service) UpdateOrder(ctx context.Context, o *MedicationOrder) error {
	existing, err := s.orders.GetByID(ctx, o.ID)
	if err != nil {
		return err
	}
	if TerminalOrderStatuses[existing.Status] {
		return fmt.Errorf("order is %s and cannot be modified", existing.Status)
	}
	if o.Status != "" && !ValidOrderStatuses[o.Status] {
		return fmt.Errorf("invalid status: %s", o.Status)
	}
	return s.orders.Update(ctx, o)
}

func (s *Service) DeleteOrder(ctx context.Context, id uuid.UUID) error {
	return s.orders.Delete(ctx, id)
}

func (s *Service) ListOrdersByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*MedicationOrder, int, error) {
	return s.orders.ListByPatient(ctx, patientID, limit, offset)
}

func (s *Service) ListActiveOrders(ctx context.Context, patientID uuid.UUID) ([]*MedicationOrder, error) {
	return s.orders.ListActiveByPatient(ctx, patientID)
}

// -- Prescription --

func (s *Service) CreatePrescription(ctx context.Context, p *Prescription) error {
	if p.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if p.DrugName == "" {
		return fmt.Errorf("drug_name is required")
	}
	if p.Status == "" {
		p.Status = "pending"
	}
	if !ValidPrescriptionStatuses[p.Status] {
		return fmt.Errorf("invalid status: %s", p.Status)
	}
	if p.DoseAmount != nil && *p.DoseAmount <= 0 {
		return fmt.Errorf("dose_amount must be positive")
	}
	return s.prescriptions.Create(ctx, p)
}

func (s *Service) GetPrescription(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	return s.prescriptions.GetByID(ctx, id)
}

func (s *Service) UpdatePrescription(ctx context.Context, p *Prescription) error {
	existing, err := s.prescriptions.GetByID(ctx, p.ID)
	if err != nil {
		return err
	}
	if TerminalPrescriptionStatuses[existing.Status] {
		return fmt.Errorf("prescription is %s and cannot be modified", existing.Status)
	}
	if p.Status != "" && !ValidPrescriptionStatuses[p.Status] {
		return fmt.Errorf("invalid status: %s", p.Status)
	}
	return s.prescriptions.Update(ctx, p)
}

func (s *Service) DeletePrescription(ctx context.Context, id uuid.UUID) error {
	return s.prescriptions.Delete(ctx, id)
}

func (s *Service) ListPrescriptionsByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Prescription, int, error) {
	return s.prescriptions.ListByPatient(ctx, patientID, limit, offset)
}

func (s *Service) ListActivePrescriptions(ctx context.Context, patientID uuid.UUID) ([]*Prescription, error) {
	return s.prescriptions.ListActiveByPatient(ctx, patientID)
}
