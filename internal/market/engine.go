package market

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sudo-init-do/tradegrid/internal/apperr"
	"github.com/sudo-init-do/tradegrid/internal/directory"
	"github.com/sudo-init-do/tradegrid/internal/listing"
	"github.com/sudo-init-do/tradegrid/internal/locator"
	"github.com/sudo-init-do/tradegrid/internal/notify"
	"github.com/sudo-init-do/tradegrid/internal/shard"
	"github.com/sudo-init-do/tradegrid/internal/user"
	"github.com/sudo-init-do/tradegrid/internal/wallet"
)

// Engine orchestrates purchases and settlements across shards.
type Engine struct {
	reg      *shard.Registry
	txns     Store
	listings *listing.Service
	ledger   wallet.Ledger
	dir      *directory.Resolver
	users    user.Store
	loc      *locator.Locator
	notifier notify.Notifier
	log      *zap.Logger

	commissionRate decimal.Decimal
	signedURLTTL   time.Duration
}

func NewEngine(
	reg *shard.Registry,
	txns Store,
	listings *listing.Service,
	ledger wallet.Ledger,
	dir *directory.Resolver,
	users user.Store,
	loc *locator.Locator,
	notifier notify.Notifier,
	commissionRate decimal.Decimal,
	signedURLTTL time.Duration,
	log *zap.Logger,
) *Engine {
	return &Engine{
		reg:            reg,
		txns:           txns,
		listings:       listings,
		ledger:         ledger,
		dir:            dir,
		users:          users,
		loc:            loc,
		notifier:       notifier,
		commissionRate: commissionRate,
		signedURLTTL:   signedURLTTL,
		log:            log,
	}
}

// PurchaseResult is what the caller gets back from a successful purchase.
type PurchaseResult struct {
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
	Message       string `json:"message"`
}

// Purchase opens a claim on a listing. Digital products settle immediately;
// physical goods escrow the full amount on the seller's pending balance until
// the buyer confirms receipt.
func (e *Engine) Purchase(ctx context.Context, adID, buyerID string, amount decimal.Decimal, paymentMethod string) (PurchaseResult, error) {
	if !amount.IsPositive() {
		return PurchaseResult{}, apperr.Wrap(apperr.ErrInvalidInput, "amount must be positive")
	}

	_, ad, err := e.listings.Locate(ctx, adID)
	if err != nil {
		return PurchaseResult{}, err
	}

	if ad.SellerID == buyerID {
		return PurchaseResult{}, apperr.Wrap(apperr.ErrForbidden, "a seller may not buy their own listing")
	}

	buyerShardID, err := e.dir.ResolveUserShard(ctx, buyerID)
	if err != nil {
		return PurchaseResult{}, err
	}

	now := time.Now()
	commission := amount.Mul(e.commissionRate).Round(2)
	txn := Transaction{
		ID:            uuid.New().String(),
		AdID:          adID,
		BuyerID:       buyerID,
		SellerID:      ad.SellerID,
		Amount:        amount,
		Commission:    commission,
		Status:        StatusPending,
		PaymentMethod: paymentMethod,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	digital := ad.Type == listing.TypeDigital
	if digital {
		txn.Status = StatusCompleted
	}

	// The store rejects a second active claim for the same (ad, buyer)
	// atomically, so two racing purchases cannot both get through.
	if err := e.txns.Create(ctx, buyerShardID, txn); err != nil {
		return PurchaseResult{}, err
	}
	e.loc.RecordLocation(ctx, locator.KindTransaction, txn.ID, buyerShardID)

	sellerShardID, err := e.dir.ResolveUserShard(ctx, ad.SellerID)
	if err != nil {
		return PurchaseResult{}, err
	}

	if digital {
		err = e.ledger.Credit(ctx, sellerShardID, ad.SellerID, wallet.FieldAvailable, amount.Sub(commission))
	} else {
		// Full amount goes to escrow; commission comes out at settlement.
		err = e.ledger.Credit(ctx, sellerShardID, ad.SellerID, wallet.FieldPending, amount)
	}
	if err != nil {
		e.log.Error("seller credit failed after transaction insert; needs reconciliation",
			zap.String("transaction_id", txn.ID),
			zap.String("seller_id", ad.SellerID),
			zap.Error(err))
		return PurchaseResult{}, err
	}

	e.notifyAsync(buyerShardID, ad.SellerID, "New sale", ad.Title, map[string]string{
		"transaction_id": txn.ID,
		"ad_id":          adID,
		"buyer_id":       buyerID,
	})

	res := PurchaseResult{TransactionID: txn.ID, Status: txn.Status}
	if digital {
		res.Message = "Purchase complete. Your download is ready."
	} else {
		res.Message = "Purchase placed. Funds are held in escrow until you confirm receipt."
	}
	return res, nil
}

// ConfirmReceipt settles a pending transaction: the buyer confirms delivery,
// the transaction completes, and escrowed funds move to the seller's
// available balance minus commission.
func (e *Engine) ConfirmReceipt(ctx context.Context, txnID, buyerID string) (Transaction, error) {
	shardID, txn, err := e.locateTxn(ctx, txnID)
	if err != nil {
		return Transaction{}, err
	}
	if txn.BuyerID != buyerID {
		return Transaction{}, apperr.Wrap(apperr.ErrForbidden, "only the buyer may confirm receipt")
	}
	if txn.Status != StatusPending {
		return Transaction{}, apperr.Wrap(apperr.ErrInvalidState, "transaction %s is not pending", txnID)
	}

	// CAS pending→completed first; a concurrent confirm loses here and the
	// ledger is touched at most once.
	txn, err = e.txns.MarkCompleted(ctx, shardID, txnID, time.Now())
	if err != nil {
		return Transaction{}, err
	}

	sellerShardID, err := e.dir.ResolveUserShard(ctx, txn.SellerID)
	if err != nil {
		e.log.Error("settlement stranded after status flip; needs reconciliation",
			zap.String("transaction_id", txnID), zap.Error(err))
		return Transaction{}, err
	}

	payout := txn.Amount.Sub(txn.Commission)
	if err := e.ledger.Settle(ctx, sellerShardID, txn.SellerID, txn.Amount, payout); err != nil {
		e.log.Error("settlement stranded after status flip; needs reconciliation",
			zap.String("transaction_id", txnID),
			zap.String("seller_id", txn.SellerID),
			zap.Error(err))
		return Transaction{}, err
	}

	e.notifyAsync(shardID, txn.SellerID, "Order settled",
		fmt.Sprintf("Funds released: %s", payout.StringFixed(2)),
		map[string]string{"transaction_id": txnID})

	return txn, nil
}

// AuthorizeDownload mints a short-lived signed URL for the digital asset of a
// completed purchase.
func (e *Engine) AuthorizeDownload(ctx context.Context, txnID, callerID string) (string, error) {
	_, txn, err := e.locateTxn(ctx, txnID)
	if err != nil {
		return "", err
	}
	if txn.BuyerID != callerID {
		return "", apperr.Wrap(apperr.ErrForbidden, "only the buyer may download this purchase")
	}
	if txn.Status != StatusCompleted {
		return "", apperr.Wrap(apperr.ErrInvalidState, "transaction %s is not completed", txnID)
	}

	adShardID, ad, err := e.listings.Locate(ctx, txn.AdID)
	if err != nil {
		return "", err
	}
	if ad.Type != listing.TypeDigital || ad.FilePath == "" {
		return "", apperr.Wrap(apperr.ErrInvalidState, "listing %s has no digital asset", txn.AdID)
	}

	sh, err := e.reg.Get(adShardID)
	if err != nil {
		return "", err
	}
	url, err := sh.Objects.SignedURL(ctx, sh.Bucket, ad.FilePath, e.signedURLTTL)
	if err != nil {
		e.log.Warn("signed url failed",
			zap.String("transaction_id", txnID),
			zap.String("path", ad.FilePath),
			zap.Error(err))
		return "", apperr.Wrap(apperr.ErrStorage, "could not authorize download for %s", txnID)
	}
	return url, nil
}

// GetWallet returns a user's balances from their home shard.
func (e *Engine) GetWallet(ctx context.Context, userID string) (wallet.Wallet, error) {
	shardID, err := e.dir.ResolveUserShard(ctx, userID)
	if err != nil {
		return wallet.Wallet{}, err
	}
	return e.ledger.Read(ctx, shardID, userID)
}

// ListBuyerOrders returns the user's purchases; they all live in the buyer's
// own shard.
func (e *Engine) ListBuyerOrders(ctx context.Context, userID string) ([]Transaction, error) {
	shardID, err := e.dir.ResolveUserShard(ctx, userID)
	if err != nil {
		return nil, err
	}
	return e.txns.ListByBuyer(ctx, shardID, userID)
}

// ListSellerOrders returns the user's sales. Transactions are stored in each
// buyer's shard, so this fans out over the registry.
func (e *Engine) ListSellerOrders(ctx context.Context, userID string) ([]Transaction, error) {
	var out []Transaction
	for _, sh := range e.reg.All() {
		ts, err := e.txns.ListBySeller(ctx, sh.ID, userID)
		if err != nil {
			return nil, err
		}
		out = append(out, ts...)
	}
	return out, nil
}

// PendingOrderCount counts open escrow transactions involving the user, as
// buyer or seller, across all shards.
func (e *Engine) PendingOrderCount(ctx context.Context, userID string) (int, error) {
	total := 0
	for _, sh := range e.reg.All() {
		n, err := e.txns.CountPending(ctx, sh.ID, userID)
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

func (e *Engine) locateTxn(ctx context.Context, txnID string) (string, Transaction, error) {
	var found Transaction
	shardID, err := e.loc.Locate(ctx, locator.KindTransaction, txnID, func(ctx context.Context, shardID string) (bool, error) {
		t, err := e.txns.Get(ctx, shardID, txnID)
		if errors.Is(err, apperr.ErrNotFound) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		found = t
		return true, nil
	})
	if err != nil {
		return "", Transaction{}, err
	}
	return shardID, found, nil
}

// notifyAsync fires the notification hook without blocking the money path.
// The recipient's display details come from the acting party's shard lookup;
// failures are logged and dropped.
func (e *Engine) notifyAsync(buyerShardID, recipientID, title, body string, meta map[string]string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if buyerID, ok := meta["buyer_id"]; ok {
			if u, err := e.users.Get(ctx, buyerShardID, buyerID); err == nil {
				meta["buyer_name"] = u.DisplayName
			}
		}
		if err := e.notifier.Notify(ctx, notify.Notification{
			RecipientID: recipientID,
			Title:       title,
			Body:        body,
			Metadata:    meta,
		}); err != nil {
			e.log.Warn("notification dropped",
				zap.String("recipient", recipientID),
				zap.Error(err))
		}
	}()
}
