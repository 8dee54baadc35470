package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/hirepurchase/ledger/internal/application/unitofwork"
	"github.com/hirepurchase/ledger/internal/application/validation"
	"github.com/hirepurchase/ledger/internal/domain/catalog"
	"github.com/hirepurchase/ledger/internal/domain/hirepurchase"
	"github.com/hirepurchase/ledger/internal/domain/partner"
	"github.com/hirepurchase/ledger/internal/domain/shared"
	"github.com/hirepurchase/ledger/internal/infrastructure/logger"
	"github.com/hirepurchase/ledger/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// AccountBinder creates accounts and attaches their contracts.
// Binding and attaching are separate units of work: an account whose contract
// failed to attach stays unattached and can be attached again later.
type AccountBinder struct {
	scope   unitofwork.Scope
	retrier *unitofwork.Retrier
	policy  Policy
	metrics *telemetry.LedgerMetrics
	logger  *zap.Logger
}

// NewAccountBinder creates a new AccountBinder
func NewAccountBinder(scope unitofwork.Scope, retrier *unitofwork.Retrier, policy Policy, metrics *telemetry.LedgerMetrics, log *zap.Logger) *AccountBinder {
	if log == nil {
		log = zap.NewNop()
	}
	return &AccountBinder{
		scope:   scope,
		retrier: retrier,
		policy:  policy,
		metrics: metrics,
		logger:  log,
	}
}

// BindAccount validates the account number and binds the customer, the product
// and exactly two distinct guarantors under it. Every party must exist.
func (b *AccountBinder) BindAccount(ctx context.Context, req BindAccountRequest) (*AccountResponse, error) {
	started := time.Now()
	ctx, span := telemetry.StartServiceSpan(ctx, "account_binder", "bind_account")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrCustomerUID, req.CustomerUID,
		telemetry.SpanAttrProductID, req.ProductID,
		telemetry.SpanAttrGuarantorUID, req.GuarantorUIDs,
	)

	account, err := b.bindAccount(ctx, req)
	b.metrics.ObserveOperation(ctx, "bind_account", started, err)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttributes(span, telemetry.SpanAttrAccountNumber, account.Number)
	b.metrics.RecordAccount(ctx, telemetry.AccountBound)
	logger.WithLogger(ctx, b.logger).Info("Account bound",
		logger.Account(account.Number),
		zap.Int64("customer_uid", account.CustomerUID),
		zap.Int64s("guarantor_uids", account.GuarantorUIDs),
		zap.String("product_id", account.ProductID.String()),
	)
	response := ToAccountResponse(account)
	return &response, nil
}

func (b *AccountBinder) bindAccount(ctx context.Context, req BindAccountRequest) (*hirepurchase.Account, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	account, err := hirepurchase.NewAccount(req.Number, req.CustomerUID, req.ProductID, req.GuarantorUIDs, req.SaleDate, req.Remarks)
	if err != nil {
		return nil, err
	}

	err = b.retrier.Do(ctx, func(ctx context.Context) error {
		return b.scope.Execute(ctx, func(repos unitofwork.Repositories) error {
			taken, err := repos.Accounts().ExistsByNumber(ctx, account.Number)
			if err != nil {
				return fmt.Errorf("failed to check account number: %w", err)
			}
			if taken {
				return shared.ErrDuplicateAccount.
					WithMessage(fmt.Sprintf("Account %s already exists", account.Number)).
					WithField("number")
			}
			if err := ensureParties(ctx, repos, account); err != nil {
				return err
			}
			return repos.Accounts().Create(ctx, account)
		})
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

// ensureParties checks that the customer, the product and both guarantors exist
func ensureParties(ctx context.Context, repos unitofwork.Repositories, account *hirepurchase.Account) error {
	exists, err := repos.Customers().ExistsByUID(ctx, account.CustomerUID)
	if err != nil {
		return fmt.Errorf("failed to check customer: %w", err)
	}
	if !exists {
		return shared.NewNotFoundError("customer", account.CustomerUID).WithField("customer_uid")
	}

	if _, err := repos.Products().FindByID(ctx, account.ProductID); err != nil {
		return namedNotFound(err, "product", account.ProductID)
	}

	guarantors, err := repos.Guarantors().FindByUIDs(ctx, account.GuarantorUIDs)
	if err != nil {
		return fmt.Errorf("failed to load guarantors: %w", err)
	}
	found := make(map[int64]bool, len(guarantors))
	for _, g := range guarantors {
		found[g.UID] = true
	}
	for _, uid := range account.GuarantorUIDs {
		if !found[uid] {
			return shared.NewNotFoundError("guarantor", uid).WithField("guarantors")
		}
	}
	return nil
}

// AttachContract creates the contract of an unattached account from the given terms.
// Fails with ErrContractAttached when the account already has one.
func (b *AccountBinder) AttachContract(ctx context.Context, number string, req TermsRequest) (*ContractResponse, error) {
	started := time.Now()
	ctx, span := telemetry.StartServiceSpan(ctx, "account_binder", "attach_contract")
	defer span.End()

	canonical, err := hirepurchase.ValidateAccountNumber(number)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrAccountNumber, canonical)
	if err := validation.Struct(req); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	var contract *hirepurchase.Contract
	err = b.retrier.Do(ctx, func(ctx context.Context) error {
		return b.scope.Execute(ctx, func(repos unitofwork.Repositories) error {
			account, err := repos.Accounts().FindByNumberForUpdate(ctx, canonical)
			if err != nil {
				return namedNotFound(err, "account", canonical)
			}
			if account.HasContract() {
				return shared.ErrContractAttached.WithMessage(fmt.Sprintf("Account %s already has a contract", canonical))
			}

			contract, err = hirepurchase.NewContract(account.Number, req.terms(), b.policy.StrictTerms)
			if err != nil {
				return err
			}
			if err := repos.Contracts().Create(ctx, contract); err != nil {
				return fmt.Errorf("failed to create contract: %w", err)
			}
			if err := account.AttachContract(contract.ID); err != nil {
				return err
			}
			return repos.Accounts().Update(ctx, account)
		})
	})
	b.metrics.ObserveOperation(ctx, "attach_contract", started, err)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttributes(span, telemetry.SpanAttrContractID, contract.ID)
	b.metrics.RecordAccount(ctx, telemetry.AccountAttached)
	logger.WithLogger(ctx, b.logger).Info("Contract attached",
		logger.Account(canonical),
		logger.Contract(contract.ID),
		logger.Amount("hire_balance", contract.HireBalance),
		logger.Amount("cash_balance", contract.CashBalance),
	)
	response := ToContractResponse(contract)
	return &response, nil
}

// GetAccount returns an account with its parties, product and contract resolved
func (b *AccountBinder) GetAccount(ctx context.Context, number string) (*AccountDetailResponse, error) {
	canonical, err := hirepurchase.ValidateAccountNumber(number)
	if err != nil {
		return nil, err
	}

	var detail AccountDetailResponse
	err = b.scope.Query(ctx, func(repos unitofwork.Repositories) error {
		account, err := repos.Accounts().FindByNumber(ctx, canonical)
		if err != nil {
			return namedNotFound(err, "account", canonical)
		}
		detail.AccountResponse = ToAccountResponse(account)

		customer, err := repos.Customers().FindByUID(ctx, account.CustomerUID)
		if err != nil {
			return namedNotFound(err, "customer", account.CustomerUID)
		}
		detail.Customer = customerRef(customer)

		product, err := repos.Products().FindByID(ctx, account.ProductID)
		if err != nil {
			return namedNotFound(err, "product", account.ProductID)
		}
		detail.Product = productRef(product)

		guarantors, err := repos.Guarantors().FindByUIDs(ctx, account.GuarantorUIDs)
		if err != nil {
			return fmt.Errorf("failed to load guarantors: %w", err)
		}
		byUID := make(map[int64]partner.Guarantor, len(guarantors))
		for _, g := range guarantors {
			byUID[g.UID] = g
		}
		detail.Guarantors = make([]PartyRef, 0, len(account.GuarantorUIDs))
		for _, uid := range account.GuarantorUIDs {
			g, ok := byUID[uid]
			if !ok {
				return shared.NewNotFoundError("guarantor", uid)
			}
			detail.Guarantors = append(detail.Guarantors, guarantorRef(&g))
		}

		if account.HasContract() {
			contract, err := repos.Contracts().FindByID(ctx, *account.ContractID)
			if err != nil {
				return namedNotFound(err, "contract", *account.ContractID)
			}
			response := ToContractResponse(contract)
			detail.Contract = &response
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &detail, nil
}

// ListAccounts lists account summaries with the customer and the hire balance resolved
func (b *AccountBinder) ListAccounts(ctx context.Context, filter AccountListFilter) (*shared.Paginated[AccountSummaryResponse], error) {
	if err := validation.Struct(filter); err != nil {
		return nil, err
	}
	domainFilter := accountFilter(filter)

	var (
		summaries []AccountSummaryResponse
		total     int64
	)
	err := b.scope.Query(ctx, func(repos unitofwork.Repositories) error {
		accounts, err := repos.Accounts().FindAll(ctx, domainFilter)
		if err != nil {
			return fmt.Errorf("failed to list accounts: %w", err)
		}
		if total, err = repos.Accounts().Count(ctx, domainFilter); err != nil {
			return fmt.Errorf("failed to count accounts: %w", err)
		}
		summaries, err = summarize(ctx, repos, accounts)
		return err
	})
	if err != nil {
		return nil, err
	}

	result := shared.NewPaginated(summaries, total, domainFilter.Page, domainFilter.PageSize)
	return &result, nil
}

// ListUnattachedAccounts lists accounts whose contract was never attached
func (b *AccountBinder) ListUnattachedAccounts(ctx context.Context) ([]AccountResponse, error) {
	var accounts []hirepurchase.Account
	err := b.scope.Query(ctx, func(repos unitofwork.Repositories) error {
		var err error
		accounts, err = repos.Accounts().FindWithoutContract(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list unattached accounts: %w", err)
	}

	responses := make([]AccountResponse, len(accounts))
	for i := range accounts {
		responses[i] = ToAccountResponse(&accounts[i])
	}
	return responses, nil
}

// UpdateAccount changes the sale date and remarks of an account.
// The account number is immutable; a request naming another number is rejected.
func (b *AccountBinder) UpdateAccount(ctx context.Context, number string, req UpdateAccountRequest) (*AccountResponse, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	return b.mutate(ctx, number, func(account *hirepurchase.Account) error {
		if err := account.EnsureNumber(req.Number); err != nil {
			return err
		}
		account.UpdateDetails(req.SaleDate, req.Remarks)
		return nil
	})
}

// CloseAccount marks an account as settled
func (b *AccountBinder) CloseAccount(ctx context.Context, number string) (*AccountResponse, error) {
	response, err := b.mutate(ctx, number, (*hirepurchase.Account).Close)
	if err != nil {
		return nil, err
	}
	b.metrics.RecordAccount(ctx, telemetry.AccountClosed)
	logger.WithLogger(ctx, b.logger).Info("Account closed", logger.Account(response.Number))
	return response, nil
}

// ReopenAccount returns a closed account to active
func (b *AccountBinder) ReopenAccount(ctx context.Context, number string) (*AccountResponse, error) {
	response, err := b.mutate(ctx, number, (*hirepurchase.Account).Reopen)
	if err != nil {
		return nil, err
	}
	b.metrics.RecordAccount(ctx, telemetry.AccountReopened)
	logger.WithLogger(ctx, b.logger).Info("Account reopened", logger.Account(response.Number))
	return response, nil
}

func (b *AccountBinder) mutate(ctx context.Context, number string, change func(*hirepurchase.Account) error) (*AccountResponse, error) {
	canonical, err := hirepurchase.ValidateAccountNumber(number)
	if err != nil {
		return nil, err
	}

	var account *hirepurchase.Account
	err = b.retrier.Do(ctx, func(ctx context.Context) error {
		return b.scope.Execute(ctx, func(repos unitofwork.Repositories) error {
			var err error
			account, err = repos.Accounts().FindByNumberForUpdate(ctx, canonical)
			if err != nil {
				return namedNotFound(err, "account", canonical)
			}
			if err := change(account); err != nil {
				return err
			}
			return repos.Accounts().Update(ctx, account)
		})
	})
	if err != nil {
		return nil, err
	}
	response := ToAccountResponse(account)
	return &response, nil
}

// DeleteAccount removes an account together with its contract, the contract's
// payments and the guarantor links. Customers, guarantors and products stay.
func (b *AccountBinder) DeleteAccount(ctx context.Context, number string) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "account_binder", "delete_account")
	defer span.End()

	canonical, err := hirepurchase.ValidateAccountNumber(number)
	if err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrAccountNumber, canonical)

	err = b.retrier.Do(ctx, func(ctx context.Context) error {
		return b.scope.Execute(ctx, func(repos unitofwork.Repositories) error {
			account, err := repos.Accounts().FindByNumberForUpdate(ctx, canonical)
			if err != nil {
				return namedNotFound(err, "account", canonical)
			}
			if account.HasContract() {
				if err := repos.Payments().DeleteByContract(ctx, *account.ContractID); err != nil {
					return fmt.Errorf("failed to delete payments: %w", err)
				}
			}
			if err := repos.Accounts().Delete(ctx, account.Number); err != nil {
				return fmt.Errorf("failed to delete account: %w", err)
			}
			if account.HasContract() {
				if err := repos.Contracts().Delete(ctx, *account.ContractID); err != nil {
					return fmt.Errorf("failed to delete contract: %w", err)
				}
			}
			return nil
		})
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return err
	}

	b.metrics.RecordAccount(ctx, telemetry.AccountDeleted)
	logger.WithLogger(ctx, b.logger).Info("Account deleted", logger.Account(canonical))
	return nil
}

// GetBindingCandidates lists every customer, guarantor and product an account can be bound to
func (b *AccountBinder) GetBindingCandidates(ctx context.Context) (*BindingCandidates, error) {
	byName := shared.Filter{OrderBy: "name", OrderDir: "asc", Filters: map[string]any{}}
	byModel := shared.Filter{OrderBy: "model", OrderDir: "asc", Filters: map[string]any{}}

	var candidates BindingCandidates
	err := b.scope.Query(ctx, func(repos unitofwork.Repositories) error {
		customers, err := repos.Customers().FindAll(ctx, byName)
		if err != nil {
			return fmt.Errorf("failed to list customers: %w", err)
		}
		guarantors, err := repos.Guarantors().FindAll(ctx, byName)
		if err != nil {
			return fmt.Errorf("failed to list guarantors: %w", err)
		}
		products, err := repos.Products().FindAll(ctx, byModel)
		if err != nil {
			return fmt.Errorf("failed to list products: %w", err)
		}

		candidates.Customers = make([]PartyRef, len(customers))
		for i := range customers {
			candidates.Customers[i] = customerRef(&customers[i])
		}
		candidates.Guarantors = make([]PartyRef, len(guarantors))
		for i := range guarantors {
			candidates.Guarantors[i] = guarantorRef(&guarantors[i])
		}
		candidates.Products = make([]ProductRef, len(products))
		for i := range products {
			candidates.Products[i] = productRef(&products[i])
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &candidates, nil
}

func accountFilter(filter AccountListFilter) shared.Filter {
	domainFilter := shared.DefaultFilter()
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
	}
	if filter.OrderBy != "" {
		domainFilter.OrderBy = filter.OrderBy
	}
	if filter.OrderDir != "" {
		domainFilter.OrderDir = filter.OrderDir
	}
	domainFilter.Search = filter.Search

	if filter.Status != "" {
		domainFilter.Filters["status"] = filter.Status
	}
	if filter.CustomerUID > 0 {
		domainFilter.Filters["customer_uid"] = filter.CustomerUID
	}
	if filter.GuarantorUID > 0 {
		domainFilter.Filters["guarantor_uid"] = filter.GuarantorUID
	}
	if filter.ProductID != nil {
		domainFilter.Filters["product_id"] = *filter.ProductID
	}
	if filter.HasContract != nil {
		domainFilter.Filters["has_contract"] = *filter.HasContract
	}
	return domainFilter
}

func summarize(ctx context.Context, repos unitofwork.Repositories, accounts []hirepurchase.Account) ([]AccountSummaryResponse, error) {
	customers := make(map[int64]*partner.Customer)
	summaries := make([]AccountSummaryResponse, len(accounts))
	for i := range accounts {
		a := &accounts[i]
		customer, ok := customers[a.CustomerUID]
		if !ok {
			var err error
			customer, err = repos.Customers().FindByUID(ctx, a.CustomerUID)
			if err != nil {
				return nil, namedNotFound(err, "customer", a.CustomerUID)
			}
			customers[a.CustomerUID] = customer
		}

		summary := AccountSummaryResponse{
			Number:        a.Number,
			CustomerUID:   a.CustomerUID,
			CustomerName:  customer.Name,
			CustomerPhone: customer.Phone,
			Status:        string(a.Status),
			SaleDate:      a.SaleDate,
			HasContract:   a.HasContract(),
		}
		if a.HasContract() {
			contract, err := repos.Contracts().FindByID(ctx, *a.ContractID)
			if err != nil {
				return nil, namedNotFound(err, "contract", *a.ContractID)
			}
			balance := contract.HireBalance
			summary.HireBalance = &balance
		}
		summaries[i] = summary
	}
	return summaries, nil
}

func customerRef(c *partner.Customer) PartyRef {
	return PartyRef{UID: c.UID, Name: c.Name, Phone: c.Phone}
}

func guarantorRef(g *partner.Guarantor) PartyRef {
	return PartyRef{UID: g.UID, Name: g.Name, Phone: g.Phone}
}

func productRef(p *catalog.Product) ProductRef {
	return ProductRef{ID: p.ID, Category: string(p.Category), Model: p.Model}
}
