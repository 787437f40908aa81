package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/pharmapos/backend/internal/application/checkout"
	"github.com/pharmapos/backend/internal/domain/cart"
	"github.com/pharmapos/backend/internal/domain/catalog"
	"github.com/pharmapos/backend/internal/domain/finance"
	"github.com/pharmapos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// errQuit ends the loop without an error
var errQuit = errors.New("quit")

type command struct {
	usage string
	help  string
	run   func(ctx context.Context, args []string) error
}

// REPL is a line-oriented checkout front end over a Session
type REPL struct {
	session  *checkout.Session
	in       io.Reader
	out      io.Writer
	format   *Formatter
	logger   *zap.Logger
	commands map[string]command

	// The last search is remembered by query and result IDs only; entries
	// are fetched again when one is added.
	lastQuery   string
	lastResults []uuid.UUID
}

// NewREPL creates a REPL reading commands from in and writing to out
func NewREPL(session *checkout.Session, in io.Reader, out io.Writer, format *Formatter, logger *zap.Logger) *REPL {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &REPL{
		session: session,
		in:      in,
		out:     out,
		format:  format,
		logger:  logger,
	}
	r.commands = map[string]command{
		"search":  {"search [text]", "find medicines by name or generic name", r.search},
		"add":     {"add <result#> <qty> [rate]", "allocate from a search result", r.add},
		"lines":   {"lines", "show cart lines", r.lines},
		"qty":     {"qty <line#> <qty>", "set a line quantity", r.setQuantity},
		"inc":     {"inc <line#>", "add one unit", r.increment},
		"dec":     {"dec <line#>", "remove one unit", r.decrement},
		"disc":    {"disc <line#> <pct|+|->", "set or step a line discount", r.discount},
		"rm":      {"rm <line#>", "remove a line", r.remove},
		"extra":   {"extra <amount>", "set the order discount", r.extra},
		"paid":    {"paid <amount>", "set the amount paid", r.paid},
		"method":  {"method <cash|card|mobile_banking|other>", "set the payment method", r.method},
		"change":  {"change <tendered>", "cash change for a tendered amount", r.change},
		"summary": {"summary", "show lines and totals", r.summary},
		"submit":  {"submit [customer name]", "submit the sale", r.submit},
		"cancel":  {"cancel", "discard the sale", r.cancel},
		"help":    {"help", "list commands", r.help},
		"quit":    {"quit", "leave", r.quit},
	}
	r.commands["exit"] = r.commands["quit"]
	return r
}

// Run reads and executes commands until quit, end of input or ctx is done.
// Command errors are printed and the loop continues.
func (r *REPL) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(r.in)
	fmt.Fprintf(r.out, "Till ready for %s (%s). Type 'help' for commands.\n",
		r.session.Operator().Name, r.session.Operator().Role)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprint(r.out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(r.out)
			return scanner.Err()
		}

		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		err := r.Execute(ctx, fields[0], fields[1:])
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			fmt.Fprintf(r.out, "error: %v\n", err)
		}
	}
}

// Execute runs one command
func (r *REPL) Execute(ctx context.Context, name string, args []string) error {
	cmd, ok := r.commands[strings.ToLower(name)]
	if !ok {
		return fmt.Errorf("unknown command %q, try 'help'", name)
	}
	return cmd.run(ctx, args)
}

func (r *REPL) search(ctx context.Context, args []string) error {
	query := strings.Join(args, " ")
	results, err := r.session.Search(ctx, query)
	if err != nil {
		return err
	}
	r.lastQuery = query
	r.lastResults = make([]uuid.UUID, len(results))
	for i, res := range results {
		r.lastResults[i] = res.Medicine.ID
	}
	r.format.SearchResults(r.out, results)
	return nil
}

func (r *REPL) add(ctx context.Context, args []string) error {
	if len(args) < 2 || len(args) > 3 {
		return usageError(r.commands["add"])
	}
	idx, err := parseIndex(args[0], len(r.lastResults))
	if err != nil {
		return err
	}
	qty, err := parseQuantity(args[1])
	if err != nil {
		return err
	}
	var rate *decimal.Decimal
	if len(args) == 3 {
		d, err := parseAmount(args[2], shared.ErrInvalidRate.Code)
		if err != nil {
			return err
		}
		rate = &d
	}

	m, err := r.fetch(ctx, r.lastResults[idx])
	if err != nil {
		return err
	}
	result, err := r.session.Add(ctx, m, qty, rate)
	if err != nil {
		return err
	}

	switch result.Status {
	case cart.AllocationRejected:
		fmt.Fprintf(r.out, "not added: %s requested, %s available\n",
			r.format.Count(result.Requested), r.format.Count(result.Available))
	default:
		fmt.Fprintf(r.out, "added %s x %s from %d batch(es)\n",
			r.format.Count(result.Allocated), m.Name, len(result.Draws))
		if result.HasShortfall() {
			fmt.Fprintf(r.out, "short by %s\n", r.format.Count(result.Shortfall))
		}
	}
	return nil
}

// fetch gets a fresh catalog entry for a medicine from the last search
func (r *REPL) fetch(ctx context.Context, id uuid.UUID) (catalog.Medicine, error) {
	results, err := r.session.Search(ctx, r.lastQuery)
	if err != nil {
		return catalog.Medicine{}, err
	}
	for _, res := range results {
		if res.Medicine.ID == id {
			return res.Medicine, nil
		}
	}
	return catalog.Medicine{}, shared.NewDomainError("NOT_FOUND", "Medicine is no longer in the catalog, search again")
}

func (r *REPL) lines(_ context.Context, _ []string) error {
	r.format.Lines(r.out, r.session.Lines())
	return nil
}

func (r *REPL) setQuantity(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return usageError(r.commands["qty"])
	}
	lineID, err := r.lineID(args[0])
	if err != nil {
		return err
	}
	qty, err := parseQuantity(args[1])
	if err != nil {
		return err
	}
	result, err := r.session.SetQuantity(ctx, lineID, qty)
	if err != nil {
		return err
	}
	r.printQuantity(result)
	return nil
}

func (r *REPL) increment(ctx context.Context, args []string) error {
	return r.stepQuantity(ctx, args, r.commands["inc"], r.session.IncrementQuantity)
}

func (r *REPL) decrement(ctx context.Context, args []string) error {
	return r.stepQuantity(ctx, args, r.commands["dec"], r.session.DecrementQuantity)
}

func (r *REPL) stepQuantity(
	ctx context.Context,
	args []string,
	cmd command,
	step func(context.Context, uuid.UUID) (cart.QuantityResult, error),
) error {
	if len(args) != 1 {
		return usageError(cmd)
	}
	lineID, err := r.lineID(args[0])
	if err != nil {
		return err
	}
	result, err := step(ctx, lineID)
	if err != nil {
		return err
	}
	r.printQuantity(result)
	return nil
}

func (r *REPL) printQuantity(result cart.QuantityResult) {
	switch {
	case result.Removed:
		fmt.Fprintf(r.out, "line removed: %s\n", result.Reason)
	case result.Capped:
		fmt.Fprintf(r.out, "quantity capped at %s\n", r.format.Count(result.Applied))
	default:
		fmt.Fprintf(r.out, "quantity %s\n", r.format.Count(result.Applied))
	}
}

func (r *REPL) discount(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return usageError(r.commands["disc"])
	}
	lineID, err := r.lineID(args[0])
	if err != nil {
		return err
	}

	var result cart.DiscountResult
	switch args[1] {
	case "+":
		result, err = r.session.IncrementDiscount(ctx, lineID)
	case "-":
		result, err = r.session.DecrementDiscount(ctx, lineID)
	default:
		pct, perr := decimal.NewFromString(args[1])
		if perr != nil {
			return shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Discount must be a number, got %q", args[1]))
		}
		result, err = r.session.SetDiscount(ctx, lineID, pct)
	}
	if err != nil {
		return err
	}

	if result.Capped {
		fmt.Fprintf(r.out, "discount %s (limit %s)\n", r.format.Percent(result.Applied), r.format.Percent(result.Cap))
		return nil
	}
	fmt.Fprintf(r.out, "discount %s\n", r.format.Percent(result.Applied))
	return nil
}

func (r *REPL) remove(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageError(r.commands["rm"])
	}
	lineID, err := r.lineID(args[0])
	if err != nil {
		return err
	}
	if err := r.session.Remove(ctx, lineID); err != nil {
		return err
	}
	fmt.Fprintln(r.out, "line removed")
	return nil
}

func (r *REPL) extra(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageError(r.commands["extra"])
	}
	amount, err := parseAmount(args[0], shared.ErrInvalidInput.Code)
	if err != nil {
		return err
	}
	s := r.session.SetExtraDiscount(ctx, amount)
	r.format.Summary(r.out, s, r.session.PaymentMethod())
	return nil
}

func (r *REPL) paid(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageError(r.commands["paid"])
	}
	amount, err := parseAmount(args[0], shared.ErrInvalidInput.Code)
	if err != nil {
		return err
	}
	s := r.session.SetPaid(ctx, amount)
	r.format.Summary(r.out, s, r.session.PaymentMethod())
	return nil
}

func (r *REPL) method(_ context.Context, args []string) error {
	if len(args) != 1 {
		return usageError(r.commands["method"])
	}
	m, err := finance.ParsePaymentMethod(args[0])
	if err != nil {
		return err
	}
	if err := r.session.SetPaymentMethod(m); err != nil {
		return err
	}
	fmt.Fprintf(r.out, "payment method %s\n", strings.ToLower(m.String()))
	return nil
}

func (r *REPL) change(_ context.Context, args []string) error {
	if len(args) != 1 {
		return usageError(r.commands["change"])
	}
	tendered, err := parseAmount(args[0], shared.ErrInvalidInput.Code)
	if err != nil {
		return err
	}
	fmt.Fprintf(r.out, "change %s\n", r.format.Money(finance.Change(tendered, r.session.Summary())))
	return nil
}

func (r *REPL) summary(_ context.Context, _ []string) error {
	r.format.Lines(r.out, r.session.Lines())
	fmt.Fprintln(r.out)
	r.format.Summary(r.out, r.session.Summary(), r.session.PaymentMethod())
	return nil
}

func (r *REPL) submit(ctx context.Context, args []string) error {
	customer := checkout.CustomerContext{CustomerName: strings.Join(args, " ")}
	receipt, err := r.session.Submit(ctx, customer)
	if err != nil {
		return err
	}
	fmt.Fprintf(r.out, "sale %s submitted\n", receipt.InvoiceNumber)
	return nil
}

func (r *REPL) cancel(ctx context.Context, _ []string) error {
	r.session.Cancel(ctx)
	fmt.Fprintln(r.out, "sale cancelled")
	return nil
}

func (r *REPL) help(_ context.Context, _ []string) error {
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		if name != "exit" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		cmd := r.commands[name]
		fmt.Fprintf(r.out, "  %-42s %s\n", cmd.usage, cmd.help)
	}
	return nil
}

func (r *REPL) quit(_ context.Context, _ []string) error {
	if n := len(r.session.Lines()); n > 0 {
		r.logger.Warn("Leaving with an unsubmitted sale", zap.Int("lines", n))
	}
	return errQuit
}

// lineID resolves a 1-based line number from the current cart listing
func (r *REPL) lineID(arg string) (uuid.UUID, error) {
	lines := r.session.Lines()
	idx, err := parseIndex(arg, len(lines))
	if err != nil {
		return uuid.Nil, shared.ErrLineNotFound
	}
	return lines[idx].ID, nil
}

func usageError(cmd command) error {
	return shared.NewDomainError("INVALID_INPUT", "usage: "+cmd.usage)
}

func parseIndex(arg string, n int) (int, error) {
	i, err := strconv.Atoi(arg)
	if err != nil || i < 1 || i > n {
		return 0, shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("No entry %q, pick 1 to %d", arg, n))
	}
	return i - 1, nil
}

func parseQuantity(arg string) (int64, error) {
	qty, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || qty <= 0 {
		return 0, shared.NewDomainError("INVALID_QUANTITY", fmt.Sprintf("Quantity must be a positive whole number, got %q", arg))
	}
	return qty, nil
}

func parseAmount(arg string, code string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(arg)
	if err != nil {
		return decimal.Zero, shared.NewDomainError(code, fmt.Sprintf("Amount must be a number, got %q", arg))
	}
	return d, nil
}
