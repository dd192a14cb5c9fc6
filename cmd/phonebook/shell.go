package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hongminglow/phonebook/internal/app"
	"github.com/hongminglow/phonebook/internal/models"
	"github.com/hongminglow/phonebook/internal/models/dto"
	"github.com/hongminglow/phonebook/internal/phonebook"
	"github.com/hongminglow/phonebook/internal/render"
	"github.com/hongminglow/phonebook/internal/storage"
)

const menu = `
Contact Manager
1. Add Contact
2. View Contacts
3. Search Contacts
4. Update Contact
5. Delete Contact
6. Import Contacts from CSV
7. Sort Contacts
8. Exit`

func (c *cli) shellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Start the interactive menu",
		Args:  cobra.NoArgs,
		RunE:  c.runShell,
	}
}

func (c *cli) runShell(cmd *cobra.Command, _ []string) error {
	return c.withApp(cmd, func(a *app.App) error {
		out := &lockedWriter{w: cmd.OutOrStdout()}
		stop, err := a.Watch(cmd.Context(), func() {
			fmt.Fprintln(out, "\nWarning: the contacts file was changed by another program; your next change will overwrite it.")
		})
		if err != nil {
			c.logger.Warn("contacts file watch disabled", zap.Error(err))
		} else {
			defer stop()
		}
		s := &shell{book: a.Book, in: bufio.NewScanner(cmd.InOrStdin()), out: out}
		return s.run(cmd.Context())
	})
}

// shell is the numbered prompt loop. It re-prompts for malformed phone and
// email values before calling the book, which validates again.
type shell struct {
	book *phonebook.Book
	in   *bufio.Scanner
	out  io.Writer
}

var errQuit = errors.New("quit")

func (s *shell) run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		fmt.Fprintln(s.out, menu)
		choice, err := s.prompt("Select an option: ")
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			return err
		}

		switch choice {
		case "1":
			err = s.add(ctx)
		case "2":
			err = render.Table(s.out, s.book.List())
		case "3":
			err = s.search()
		case "4":
			err = s.update(ctx)
		case "5":
			err = s.remove(ctx)
		case "6":
			err = s.importFile(ctx)
		case "7":
			err = s.sort()
		case "8":
			return nil
		default:
			fmt.Fprintln(s.out, "Invalid choice. Please try again.")
		}
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			fmt.Fprintln(s.out, userMessage(err))
		}
	}
}

func (s *shell) add(ctx context.Context) error {
	var c models.Contact
	var err error
	if c.FirstName, err = s.prompt("First Name: "); err != nil {
		return err
	}
	if c.LastName, err = s.prompt("Last Name: "); err != nil {
		return err
	}
	if c.Phone, err = s.promptValid("Phone Number (###) ###-####: ", phonebook.ValidatePhone, false); err != nil {
		return err
	}
	if c.Email, err = s.promptValid("Email Address: ", phonebook.ValidateEmail, true); err != nil {
		return err
	}
	if c.Address, err = s.prompt("Address: "); err != nil {
		return err
	}
	if err := s.book.Add(ctx, c); err != nil {
		return err
	}
	fmt.Fprintln(s.out, "Contact added successfully.")
	return nil
}

func (s *shell) search() error {
	q, err := s.prompt("Search query: ")
	if err != nil {
		return err
	}
	return render.Table(s.out, s.book.Search(q))
}

func (s *shell) update(ctx context.Context) error {
	phone, err := s.prompt("Phone Number of contact to update: ")
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out, "Enter new details (leave blank to keep current value):")
	var u dto.ContactUpdate
	if u.FirstName, err = s.prompt("First Name: "); err != nil {
		return err
	}
	if u.LastName, err = s.prompt("Last Name: "); err != nil {
		return err
	}
	if u.Phone, err = s.promptValid("New Phone Number (###) ###-####: ", phonebook.ValidatePhone, true); err != nil {
		return err
	}
	if u.Email, err = s.promptValid("New Email Address: ", phonebook.ValidateEmail, true); err != nil {
		return err
	}
	if u.Address, err = s.prompt("Address: "); err != nil {
		return err
	}
	if _, err := s.book.Update(ctx, phone, u); err != nil {
		return err
	}
	fmt.Fprintln(s.out, "Contact updated successfully.")
	return nil
}

func (s *shell) remove(ctx context.Context) error {
	phone, err := s.prompt("Phone Number of contact to delete: ")
	if err != nil {
		return err
	}
	if _, err := s.book.Delete(ctx, phone); err != nil {
		return err
	}
	fmt.Fprintln(s.out, "Contact deleted successfully.")
	return nil
}

func (s *shell) importFile(ctx context.Context) error {
	path, err := s.prompt("CSV file path: ")
	if err != nil {
		return err
	}
	report, err := s.book.Import(ctx, path)
	if err != nil {
		return err
	}
	return printImportReport(s.out, report)
}

func (s *shell) sort() error {
	by, err := s.prompt("Sort by (First Name/Last Name/Phone Number): ")
	if err != nil {
		return err
	}
	field := models.FieldLastName
	if by != "" {
		if field, err = models.ParseField(by); err != nil {
			return err
		}
	}
	if err := s.book.Sort(field); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Contacts sorted by %s.\n", field)
	return nil
}

// prompt prints label and reads one trimmed line. End of input is errQuit.
func (s *shell) prompt(label string) (string, error) {
	fmt.Fprint(s.out, label)
	if !s.in.Scan() {
		if err := s.in.Err(); err != nil {
			return "", err
		}
		return "", errQuit
	}
	return strings.TrimSpace(s.in.Text()), nil
}

// promptValid repeats prompt until validate accepts the answer. An empty
// answer is accepted when optional is set.
func (s *shell) promptValid(label string, validate func(string) error, optional bool) (string, error) {
	for {
		v, err := s.prompt(label)
		if err != nil {
			return "", err
		}
		if v == "" && optional {
			return "", nil
		}
		if err := validate(v); err != nil {
			fmt.Fprintln(s.out, userMessage(err))
			continue
		}
		return v, nil
	}
}

func userMessage(err error) string {
	switch {
	case errors.Is(err, phonebook.ErrInvalidPhone):
		return "Invalid phone number format. Expected (###) ###-####."
	case errors.Is(err, phonebook.ErrInvalidEmail):
		return "Invalid email address."
	case errors.Is(err, storage.ErrNotFound):
		return "Contact not found."
	case errors.Is(err, storage.ErrAlreadyExists):
		return "A contact with that phone number already exists."
	default:
		return "Error: " + err.Error()
	}
}

// lockedWriter serialises writes from the prompt loop and the file watcher.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
