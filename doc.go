// Package fundledger provides the bookkeeping and approval engine of a
// charitable-donation registry.
//
// Donors contribute earmarked funds to named causes. A cause's beneficiary
// may request a withdrawal against the balance the cause has raised; the
// administrator approves it, and settlement debits the cause. The engine
// guarantees that every balance stays non-negative, that nothing is paid
// without approval, and that no request is paid twice.
//
// fundledger is a library, not a service. Import it directly and choose a
// store:
//
//	import (
//	    "github.com/xraph/fundledger"
//	    "github.com/xraph/fundledger/store/memory"
//	)
//
//	l := fundledger.New(memory.New())
//	if err := l.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer l.Stop()
//
// # Principals and authorization
//
// Every operation that acts for a principal asks an auth.Authorizer for
// proof that the caller controls it. The default authorizer trusts the
// principals the host attached to the context:
//
//	ctx = auth.WithPrincipals(ctx, "admin")
//	err := l.Initialize(ctx, "admin")
//
// auth.JWTAuthorizer verifies a bearer token instead.
//
// # Causes, contributions and withdrawals
//
//	causeID, _ := l.AddCause(ctx, fundledger.AddCauseInput{
//	    Name:         "Dog",
//	    TargetAmount: 1000,
//	    Beneficiary:  "shelter",
//	})
//	l.Donate(donorCtx, "donor", causeID, 500)
//
//	reqID, _ := l.CreateWithdrawalRequest(shelterCtx, causeID, "shelter", 300, "vet")
//	l.ApproveWithdrawalRequest(adminCtx, reqID)
//	l.SettleWithdrawalRequest(ctx, reqID)
//
// A request moves Pending -> Approved -> Settled. Settlement re-reads the
// cause balance, which may have dropped since the request was filed.
//
// # Concurrency
//
// Each write runs inside one lock.Locker critical section: every check runs
// before any write. The default locker is in-process; lock/redislock covers
// several processes sharing one store.
//
// # Value transfer
//
// The ledger keeps books only. After a contribution or settlement commits, a
// transfer.Transfer is handed to every registered plugin.TransferProvider.
// A provider failure is logged and reported; it never rolls back the books.
//
// # Amounts and ids
//
// Amounts are int64 base units (types.Amount). Causes, contributions and
// withdrawal requests are numbered sequentially from 1 and ids are never
// reused. Transfers, audit events and operations carry TypeIDs:
//
//	xfer_01h2xcejqtf2nbrexx3vqjhp41   // transfer reference
//	op_01h455vb4pex5vsknk084sn02q     // operation correlation id
package fundledger
