package models

import "testing"

func TestRegistrationCreateRequest_Validate(t *testing.T) {
	valid := func() RegistrationCreateRequest {
		return RegistrationCreateRequest{
			EventID:       1,
			UserID:        2,
			Type:          TypeParticipant,
			CustomerName:  "Jane Doe",
			CustomerEmail: "jane@example.com",
		}
	}

	tests := []struct {
		name    string
		mutate  func(*RegistrationCreateRequest)
		wantErr bool
	}{
		{"valid request", func(r *RegistrationCreateRequest) {}, false},
		{"defaults empty type to participant", func(r *RegistrationCreateRequest) { r.Type = "" }, false},
		{"missing event", func(r *RegistrationCreateRequest) { r.EventID = 0 }, true},
		{"missing user", func(r *RegistrationCreateRequest) { r.UserID = 0 }, true},
		{"unknown type", func(r *RegistrationCreateRequest) { r.Type = "robot" }, true},
		{"missing customer name", func(r *RegistrationCreateRequest) { r.CustomerName = " " }, true},
		{"bad customer email", func(r *RegistrationCreateRequest) { r.CustomerEmail = "nope" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid()
			tt.mutate(&req)
			err := req.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRegistration_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name string
		from RegistrationStatus
		to   RegistrationStatus
		want bool
	}{
		{"draft to verified", RegistrationDraft, RegistrationVerified, true},
		{"draft to waiting list", RegistrationDraft, RegistrationWaitingList, true},
		{"draft to attended skips verification", RegistrationDraft, RegistrationAttended, false},
		{"verified to attended", RegistrationVerified, RegistrationAttended, true},
		{"verified to not attended", RegistrationVerified, RegistrationNotAttended, true},
		{"waiting list to verified", RegistrationWaitingList, RegistrationVerified, true},
		{"attended to finished", RegistrationAttended, RegistrationFinished, true},
		{"not attended back to attended", RegistrationNotAttended, RegistrationAttended, true},
		{"finished is terminal", RegistrationFinished, RegistrationVerified, false},
		{"cancelled is terminal", RegistrationCancelled, RegistrationVerified, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &Registration{Status: tt.from}
			if got := r.CanTransitionTo(tt.to); got != tt.want {
				t.Errorf("CanTransitionTo(%s) from %s = %v, want %v", tt.to, tt.from, got, tt.want)
			}
		})
	}
}

func TestRegistration_IsActive(t *testing.T) {
	active := []RegistrationStatus{
		RegistrationDraft, RegistrationVerified, RegistrationAttended, RegistrationFinished,
	}
	inactive := []RegistrationStatus{
		RegistrationNotAttended, RegistrationWaitingList, RegistrationCancelled,
	}

	for _, status := range active {
		r := &Registration{Status: status}
		if !r.IsActive() {
			t.Errorf("IsActive() with status %s = false, want true", status)
		}
	}
	for _, status := range inactive {
		r := &Registration{Status: status}
		if r.IsActive() {
			t.Errorf("IsActive() with status %s = true, want false", status)
		}
	}
}

func TestRegistration_CanReceiveCertificate(t *testing.T) {
	tests := []struct {
		status RegistrationStatus
		want   bool
	}{
		{RegistrationAttended, true},
		{RegistrationFinished, true},
		{RegistrationVerified, false},
		{RegistrationWaitingList, false},
		{RegistrationCancelled, false},
	}

	for _, tt := range tests {
		r := &Registration{Status: tt.status}
		if got := r.CanReceiveCertificate(); got != tt.want {
			t.Errorf("CanReceiveCertificate() with status %s = %v, want %v", tt.status, got, tt.want)
		}
	}
}
