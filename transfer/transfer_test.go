package transfer_test

import (
	"testing"
	"time"

	"github.com/xraph/fundledger/cause"
	"github.com/xraph/fundledger/contribution"
	"github.com/xraph/fundledger/id"
	"github.com/xraph/fundledger/transfer"
	"github.com/xraph/fundledger/withdrawal"
)

func TestInboundOutbound(t *testing.T) {
	at := time.Date(2025, 1, 2, 3, 4, 5, 0, time.FixedZone("x", 3600))
	ref := id.NewTransferID()
	op := id.NewOperationID()

	in := transfer.Inbound(ref, op, "donor", "custody", 500, cause.ID(1), contribution.ID(7), at)
	if in.Kind != transfer.KindContribution || in.From != "donor" || in.To != "custody" {
		t.Errorf("unexpected inbound transfer: %+v", in)
	}
	if in.Reference != "contribution:7" {
		t.Errorf("Reference = %q", in.Reference)
	}
	if in.CreatedAt.Location() != time.UTC {
		t.Errorf("CreatedAt not UTC: %v", in.CreatedAt)
	}

	out := transfer.Outbound(ref, op, "custody", "vet", 300, cause.ID(1), withdrawal.ID(3), at)
	if out.Kind != transfer.KindDisbursement || out.From != "custody" || out.To != "vet" {
		t.Errorf("unexpected outbound transfer: %+v", out)
	}
	if out.Reference != "withdrawal:3" {
		t.Errorf("Reference = %q", out.Reference)
	}
	if out.OperationID.String() != op.String() {
		t.Errorf("OperationID = %s, want %s", out.OperationID, op)
	}
}
