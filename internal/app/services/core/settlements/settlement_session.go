package settlements

import (
	"sync"
	"time"

	"frontdesk-service/internal/app/models"
	"frontdesk-service/internal/app/services/shared/paymentflow"
	"frontdesk-service/internal/pkg/dto/responses"
)

// settlementSession is the in-memory state of one open settlement. Sessions
// live in the usecase registry from creation until some time after close so
// the desk can still read the final snapshot.
type settlementSession struct {
	mu sync.Mutex

	ID          string
	InvoiceID   string
	PatientID   string
	PatientName string
	MRN         string
	Purpose     models.PaymentPurpose
	TotalAmount int64
	Steps       []*models.SplitPaymentStep
	CurrentStep int
	Status      models.SettlementStatus
	Outcome     models.SettlementOutcome
	CreatedAt   time.Time

	lockValue string

	// starting is held for the whole of StartStep, including its gateway
	// calls. Cancellation is refused while it is set so a close can never
	// race a flow that is still arming.
	starting bool

	// At most one flow is live at a time, belonging to the current step.
	cardFlow *paymentflow.CardFlow
	upiFlow  *paymentflow.UPIFlow
}

func (s *settlementSession) currentStepLocked() *models.SplitPaymentStep {
	if s.CurrentStep >= len(s.Steps) {
		return nil
	}
	return s.Steps[s.CurrentStep]
}

func (s *settlementSession) amountCollectedLocked() int64 {
	var sum int64
	for _, step := range s.Steps {
		if step.Status == models.StepSucceeded {
			sum += step.Amount
		}
	}
	return sum
}

func (s *settlementSession) activeMachineLocked() *paymentflow.Machine {
	if s.cardFlow != nil {
		return s.cardFlow.Machine()
	}
	if s.upiFlow != nil {
		return s.upiFlow.Machine()
	}
	return nil
}

func (s *settlementSession) clearFlowsLocked() {
	s.cardFlow = nil
	s.upiFlow = nil
}

func (s *settlementSession) snapshotLocked() *responses.SettlementResponse {
	resp := &responses.SettlementResponse{
		ID:              s.ID,
		InvoiceID:       s.InvoiceID,
		Status:          s.Status,
		Outcome:         s.Outcome,
		TotalAmount:     s.TotalAmount,
		AmountCollected: s.amountCollectedLocked(),
		CurrentStep:     s.CurrentStep,
		Steps:           make([]responses.SettlementStepResponse, len(s.Steps)),
	}

	for i, step := range s.Steps {
		resp.Steps[i] = responses.SettlementStepResponse{
			ID:      step.ID,
			Method:  step.Method,
			Amount:  step.Amount,
			Status:  step.Status,
			Attempt: step.Attempt,
		}
	}

	if machine := s.activeMachineLocked(); machine != nil {
		resp.FlowState = string(machine.State())
		resp.FailureCode, resp.FailureMessage = machine.Failure()
	}
	if s.upiFlow != nil {
		resp.QRPayload, resp.DeepLink = s.upiFlow.QRPayload()
	}
	return resp
}

func (s *settlementSession) record(closedAt time.Time) *models.SettlementRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	steps := make([]models.SplitPaymentStep, len(s.Steps))
	for i, step := range s.Steps {
		steps[i] = *step
	}
	return &models.SettlementRecord{
		ID:              s.ID,
		InvoiceID:       s.InvoiceID,
		PatientID:       s.PatientID,
		PatientName:     s.PatientName,
		MRN:             s.MRN,
		TotalAmount:     s.TotalAmount,
		AmountCollected: s.amountCollectedLocked(),
		Outcome:         s.Outcome,
		Steps:           steps,
		CreatedAt:       s.CreatedAt,
		ClosedAt:        closedAt,
	}
}
