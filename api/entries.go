package api

import (
	"context"

	"github.com/easynote/easynote-go/core"
)

// Default page size of the expense and income lists.
const DefaultEntryPageSize = 20

// Expense is one spending entry.
type Expense struct {
	ID           int64   `json:"id"`
	LedgerID     int64   `json:"ledgerId"`
	LedgerName   string  `json:"ledgerName"`
	UserID       int64   `json:"userId"`
	UserNickname string  `json:"userNickname"`
	Amount       float64 `json:"amount"`
	CategoryID   int64   `json:"categoryId"`
	CategoryName string  `json:"categoryName"`
	CategoryIcon string  `json:"categoryIcon"`
	Purpose      string  `json:"purpose,omitempty"`
	Remark       string  `json:"remark,omitempty"`
	ExpenseDate  string  `json:"expenseDate"`
	BankCardID   *int64  `json:"bankCardId,omitempty"`
	BankCardName string  `json:"bankCardName,omitempty"`
	CreateTime   string  `json:"createTime"`
}

// ExpenseInput is the create and edit form of an expense.
type ExpenseInput struct {
	LedgerID    int64   `json:"ledgerId"`
	Amount      float64 `json:"amount"`
	CategoryID  int64   `json:"categoryId"`
	Purpose     string  `json:"purpose,omitempty"`
	Remark      string  `json:"remark,omitempty"`
	ExpenseDate string  `json:"expenseDate"`
	BankCardID  *int64  `json:"bankCardId,omitempty"`
}

// Income is one earning entry.
type Income struct {
	ID           int64   `json:"id"`
	LedgerID     int64   `json:"ledgerId"`
	LedgerName   string  `json:"ledgerName"`
	UserID       int64   `json:"userId"`
	UserNickname string  `json:"userNickname"`
	Amount       float64 `json:"amount"`
	CategoryID   int64   `json:"categoryId"`
	CategoryName string  `json:"categoryName"`
	CategoryIcon string  `json:"categoryIcon"`
	Source       string  `json:"source,omitempty"`
	Remark       string  `json:"remark,omitempty"`
	IncomeDate   string  `json:"incomeDate"`
	BankCardID   *int64  `json:"bankCardId,omitempty"`
	BankCardName string  `json:"bankCardName,omitempty"`
	CreateTime   string  `json:"createTime"`
}

// IncomeInput is the create and edit form of an income.
type IncomeInput struct {
	LedgerID   int64   `json:"ledgerId"`
	Amount     float64 `json:"amount"`
	CategoryID int64   `json:"categoryId"`
	Source     string  `json:"source,omitempty"`
	Remark     string  `json:"remark,omitempty"`
	IncomeDate string  `json:"incomeDate"`
	BankCardID *int64  `json:"bankCardId,omitempty"`
}

// EntryFilter narrows an expense or income search. Nil and empty fields
// are not sent.
type EntryFilter struct {
	LedgerID   *int64
	CategoryID *int64
	StartDate  string
	EndDate    string
	Page       *int64
	Size       *int64
}

func (f EntryFilter) query() query {
	return query{}.
		optInt("ledgerId", f.LedgerID).
		optInt("categoryId", f.CategoryID).
		optString("startDate", f.StartDate).
		optString("endDate", f.EndDate).
		optInt("page", f.Page).
		optInt("size", f.Size)
}

func pageQuery(ledgerID int64, pageNum, pageSize int64) query {
	if pageNum <= 0 {
		pageNum = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultEntryPageSize
	}
	return query{}.setInt("ledgerId", ledgerID).setInt("pageNum", pageNum).setInt("pageSize", pageSize)
}

// Expenses binds /expense.
type Expenses struct {
	e core.Executor
}

// List returns one page of a ledger's expenses. Non-positive page values
// fall back to page 1 of DefaultEntryPageSize.
func (x *Expenses) List(ctx context.Context, ledgerID, pageNum, pageSize int64) (*core.Envelope[Page[Expense]], error) {
	return core.Get[Page[Expense]](ctx, x.e, "/expense", pageQuery(ledgerID, pageNum, pageSize).values())
}

// Search lists expenses matching f.
func (x *Expenses) Search(ctx context.Context, f EntryFilter) (*core.Envelope[Page[Expense]], error) {
	return core.Get[Page[Expense]](ctx, x.e, "/expense", f.query().values())
}

// Get returns one expense.
func (x *Expenses) Get(ctx context.Context, id int64) (*core.Envelope[Expense], error) {
	return core.Get[Expense](ctx, x.e, "/expense/"+itoa(id), nil)
}

// Create books an expense.
func (x *Expenses) Create(ctx context.Context, p ExpenseInput) (*core.Envelope[Expense], error) {
	return core.Post[Expense](ctx, x.e, "/expense", p)
}

// Update edits an expense.
func (x *Expenses) Update(ctx context.Context, id int64, p ExpenseInput) (*core.Envelope[Expense], error) {
	return core.Put[Expense](ctx, x.e, "/expense/"+itoa(id), p)
}

// Delete removes an expense.
func (x *Expenses) Delete(ctx context.Context, id int64) (*core.Envelope[core.Empty], error) {
	return core.Delete[core.Empty](ctx, x.e, "/expense/"+itoa(id))
}

// Incomes binds /income.
type Incomes struct {
	e core.Executor
}

// List returns one page of a ledger's incomes. Non-positive page values
// fall back to page 1 of DefaultEntryPageSize.
func (x *Incomes) List(ctx context.Context, ledgerID, pageNum, pageSize int64) (*core.Envelope[Page[Income]], error) {
	return core.Get[Page[Income]](ctx, x.e, "/income", pageQuery(ledgerID, pageNum, pageSize).values())
}

// Search lists incomes matching f.
func (x *Incomes) Search(ctx context.Context, f EntryFilter) (*core.Envelope[Page[Income]], error) {
	return core.Get[Page[Income]](ctx, x.e, "/income", f.query().values())
}

// Get returns one income.
func (x *Incomes) Get(ctx context.Context, id int64) (*core.Envelope[Income], error) {
	return core.Get[Income](ctx, x.e, "/income/"+itoa(id), nil)
}

// Create books an income.
func (x *Incomes) Create(ctx context.Context, p IncomeInput) (*core.Envelope[Income], error) {
	return core.Post[Income](ctx, x.e, "/income", p)
}

// Update edits an income.
func (x *Incomes) Update(ctx context.Context, id int64, p IncomeInput) (*core.Envelope[Income], error) {
	return core.Put[Income](ctx, x.e, "/income/"+itoa(id), p)
}

// Delete removes an income.
func (x *Incomes) Delete(ctx context.Context, id int64) (*core.Envelope[core.Empty], error) {
	return core.Delete[core.Empty](ctx, x.e, "/income/"+itoa(id))
}
