// Command foodctl is a terminal client for the food delivery API. It keeps the cart and the
// session in a state directory, the way the mobile app keeps them in local storage.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/sirupsen/logrus"

	"github.com/ayeshabutt275/MAD-Fall-25/pkg/cart"
	"github.com/ayeshabutt275/MAD-Fall-25/pkg/catalog"
	"github.com/ayeshabutt275/MAD-Fall-25/pkg/client"
	"github.com/ayeshabutt275/MAD-Fall-25/pkg/order"
)

const usage = `usage: foodctl [-api URL] [-dir DIR] <command> [args]

commands:
  menu [-category C] [-q TEXT]
  cart [show | add ID | remove ID | set ID QTY | clear]
  checkout -name N -phone P -address A [-city C] [-payment cash|card]
  orders [-status S]
  order ID
  reorder ID
  status ID STATUS
  signup -name N -email E -password P [-phone P]
  login -email E -password P
  logout
  whoami
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	if err := run(ctx, os.Args[1:], os.Stdout, logger); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		logger.WithError(err).Error("foodctl failed")
		os.Exit(1)
	}
}

type cli struct {
	api      *client.Client
	carts    cart.Store
	sessions client.SessionStore
	out      io.Writer
}

func run(ctx context.Context, args []string, out io.Writer, logger *logrus.Logger) error {
	set := flag.NewFlagSet("foodctl", flag.ContinueOnError)
	set.SetOutput(out)
	set.Usage = func() { fmt.Fprint(out, usage) }
	apiURL := set.String("api", envOr("FOODCTL_API", "http://localhost:5000"), "API base URL")
	dir := set.String("dir", envOr("FOODCTL_DIR", defaultStateDir()), "State directory for cart and session")
	verbose := set.Bool("v", false, "Log API calls")
	if err := set.Parse(args); err != nil {
		return err
	}
	if set.NArg() == 0 {
		set.Usage()
		return flag.ErrHelp
	}
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	c := &cli{
		carts:    cart.Store{Path: filepath.Join(*dir, "cart.json")},
		sessions: client.SessionStore{Path: filepath.Join(*dir, "session.json")},
		out:      out,
	}
	session, err := c.sessions.Load()
	if err != nil {
		return err
	}
	c.api = client.New(*apiURL, client.WithSession(session), client.WithLogger(logger))

	cmd, rest := set.Arg(0), set.Args()[1:]
	switch cmd {
	case "menu":
		return c.menu(ctx, rest)
	case "cart":
		return c.cart(ctx, rest)
	case "checkout":
		return c.checkout(ctx, rest)
	case "orders":
		return c.orders(ctx, rest)
	case "reorder":
		return c.reorder(ctx, rest)
	case "order":
		return c.order(ctx, rest)
	case "status":
		return c.status(ctx, rest)
	case "signup":
		return c.signup(ctx, rest)
	case "login":
		return c.login(ctx, rest)
	case "logout":
		if err := c.sessions.Clear(); err != nil {
			return err
		}
		c.api.SetSession(nil)
		fmt.Fprintln(out, "logged out")
		return nil
	case "whoami":
		return c.whoami()
	default:
		set.Usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func defaultStateDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".foodctl")
	}
	return ".foodctl"
}

func (c *cli) menu(ctx context.Context, args []string) error {
	set := flag.NewFlagSet("menu", flag.ContinueOnError)
	set.SetOutput(c.out)
	category := set.String("category", "", "Category filter (Pizza, Burger, Roll, Wrap, Dessert, Fries, Drink)")
	query := set.String("q", "", "Name search")
	if err := set.Parse(args); err != nil {
		return err
	}
	items, err := c.api.Foods(ctx, *category, *query)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Fprintln(c.out, "no items")
		return nil
	}
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tPRICE")
	for _, item := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\tRs %d\n", item.ID, item.Name, item.Category, item.Price)
	}
	return tw.Flush()
}

func (c *cli) cart(ctx context.Context, args []string) error {
	basket, err := c.carts.Load()
	if err != nil {
		return err
	}
	sub := "show"
	if len(args) > 0 {
		sub, args = args[0], args[1:]
	}
	switch sub {
	case "show":
		return c.printCart(basket)
	case "add":
		if len(args) != 1 {
			return errors.New("usage: cart add ID")
		}
		item, err := c.findFood(ctx, args[0])
		if err != nil {
			return err
		}
		basket.Add(item)
	case "remove":
		if len(args) != 1 {
			return errors.New("usage: cart remove ID")
		}
		basket.Remove(args[0])
	case "set":
		if len(args) != 2 {
			return errors.New("usage: cart set ID QTY")
		}
		qty, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("quantity %q is not a number", args[1])
		}
		basket.SetQuantity(args[0], qty)
	case "clear":
		basket.Clear()
	default:
		return fmt.Errorf("unknown cart command %q", sub)
	}
	if err := c.carts.Save(basket); err != nil {
		return err
	}
	return c.printCart(basket)
}

// findFood resolves an id, or failing that a case-insensitive exact name.
func (c *cli) findFood(ctx context.Context, ref string) (catalog.FoodItem, error) {
	items, err := c.api.Foods(ctx, "", "")
	if err != nil {
		return catalog.FoodItem{}, err
	}
	for _, item := range items {
		if item.ID == ref {
			return item, nil
		}
	}
	for _, item := range items {
		if strings.EqualFold(item.Name, ref) {
			return item, nil
		}
	}
	return catalog.FoodItem{}, fmt.Errorf("no menu item %q", ref)
}

func (c *cli) printCart(basket *cart.Cart) error {
	if basket.Empty() {
		fmt.Fprintln(c.out, "cart is empty")
		return nil
	}
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tQTY\tSUBTOTAL")
	for _, l := range basket.Lines() {
		fmt.Fprintf(tw, "%s\t%s\t%d\tRs %d\n", l.ID, l.Name, l.Quantity, l.Subtotal())
	}
	fmt.Fprintf(tw, "\t%d items\t\tRs %d + Rs %d delivery\n", basket.TotalItems(), basket.TotalPrice(), order.DeliveryFee)
	return tw.Flush()
}

func (c *cli) checkout(ctx context.Context, args []string) error {
	set := flag.NewFlagSet("checkout", flag.ContinueOnError)
	set.SetOutput(c.out)
	var form client.CheckoutForm
	payment := set.String("payment", string(order.PaymentCash), "cash or card")
	set.StringVar(&form.Name, "name", "", "Customer name")
	set.StringVar(&form.Phone, "phone", "", "Phone number")
	set.StringVar(&form.Address, "address", "", "Street address")
	set.StringVar(&form.City, "city", "", "City")
	if err := set.Parse(args); err != nil {
		return err
	}
	form.PaymentMethod = order.PaymentMethod(*payment)

	basket, err := c.carts.Load()
	if err != nil {
		return err
	}
	placed, err := c.api.Checkout(ctx, basket, form)
	if err != nil {
		return err
	}
	basket.Clear()
	if err := c.carts.Save(basket); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "order %s placed, total Rs %d, status %s\n", placed.Number, placed.TotalAmount, placed.Status)
	return nil
}

func (c *cli) orders(ctx context.Context, args []string) error {
	set := flag.NewFlagSet("orders", flag.ContinueOnError)
	set.SetOutput(c.out)
	raw := set.String("status", "all", "Only orders in this status, or all")
	if err := set.Parse(args); err != nil {
		return err
	}
	var status order.Status
	if *raw != "all" {
		parsed, err := order.ParseStatus(*raw)
		if err != nil {
			return err
		}
		status = parsed
	}
	list, err := c.api.Orders(ctx)
	if err != nil {
		return err
	}
	list = order.FilterStatus(list, status)
	if len(list) == 0 {
		fmt.Fprintln(c.out, "no orders")
		return nil
	}
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NUMBER\tID\tSTATUS\tTOTAL\tPLACED")
	for _, o := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\tRs %d\t%s\n", o.Number, o.ID, o.Status, o.TotalAmount, o.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}

func (c *cli) order(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: order ID")
	}
	o, err := c.api.Order(ctx, args[0])
	if err != nil {
		return err
	}
	c.printOrder(o)
	return nil
}

// reorder puts the lines of a delivered order back into the cart at the prices paid.
func (c *cli) reorder(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: reorder ID")
	}
	o, err := c.api.Order(ctx, args[0])
	if err != nil {
		return err
	}
	if o.Status != order.StatusDelivered {
		return fmt.Errorf("order %s is %s; only delivered orders can be reordered", o.Number, o.Status)
	}
	basket, err := c.carts.Load()
	if err != nil {
		return err
	}
	for _, l := range o.Items {
		basket.AddLine(cart.Line{
			ID:       l.ID,
			Name:     l.Name,
			Price:    l.Price,
			Image:    l.Image,
			Category: l.Category,
			Quantity: l.Quantity,
		})
	}
	if err := c.carts.Save(basket); err != nil {
		return err
	}
	return c.printCart(basket)
}

func (c *cli) printOrder(o order.Order) {
	fmt.Fprintf(c.out, "%s (%s)\nstatus: %s\ncustomer: %s, %s\naddress: %s\npayment: %s\n",
		o.Number, o.ID, o.Status, o.CustomerName, o.Phone, o.Address, o.PaymentMethod)
	for _, l := range o.Items {
		fmt.Fprintf(c.out, "  %d x %s @ Rs %d\n", l.Quantity, l.Name, l.Price)
	}
	fmt.Fprintf(c.out, "total: Rs %d\n", o.TotalAmount)
	if next := order.NextStatuses(o.Status); len(next) > 0 {
		names := make([]string, 0, len(next))
		for _, s := range next {
			names = append(names, string(s))
		}
		fmt.Fprintf(c.out, "next: %s\n", strings.Join(names, ", "))
	}
}

func (c *cli) status(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errors.New("usage: status ID STATUS")
	}
	next, err := order.ParseStatus(args[1])
	if err != nil {
		return err
	}
	o, err := c.api.UpdateStatus(ctx, args[0], next)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "order %s is now %s\n", o.Number, o.Status)
	return nil
}

func (c *cli) signup(ctx context.Context, args []string) error {
	set := flag.NewFlagSet("signup", flag.ContinueOnError)
	set.SetOutput(c.out)
	var req client.SignupRequest
	set.StringVar(&req.Name, "name", "", "Full name")
	set.StringVar(&req.Email, "email", "", "Email")
	set.StringVar(&req.Password, "password", "", "Password, at least 6 characters")
	set.StringVar(&req.Phone, "phone", "", "Phone number")
	if err := set.Parse(args); err != nil {
		return err
	}
	session, err := c.api.Signup(ctx, req)
	if err != nil {
		return err
	}
	return c.adopt(session)
}

func (c *cli) login(ctx context.Context, args []string) error {
	set := flag.NewFlagSet("login", flag.ContinueOnError)
	set.SetOutput(c.out)
	email := set.String("email", "", "Email")
	password := set.String("password", "", "Password")
	if err := set.Parse(args); err != nil {
		return err
	}
	session, err := c.api.Login(ctx, *email, *password)
	if err != nil {
		return err
	}
	return c.adopt(session)
}

func (c *cli) adopt(session *client.Session) error {
	if err := c.sessions.Save(session); err != nil {
		return err
	}
	c.api.SetSession(session)
	fmt.Fprintf(c.out, "signed in as %s <%s>\n", session.User.Name, session.User.Email)
	return nil
}

func (c *cli) whoami() error {
	session := c.api.Session()
	if session == nil {
		fmt.Fprintln(c.out, "not signed in")
		return nil
	}
	fmt.Fprintf(c.out, "%s <%s>\n", session.User.Name, session.User.Email)
	return nil
}
