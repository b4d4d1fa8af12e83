package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/angie756/cafe-limon/config"
	"github.com/angie756/cafe-limon/internal/domain"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^[0-9]{10}$`)
)

// Result collects every violated rule so callers can display all problems at
// once instead of failing on the first.
type Result struct {
	Violations []string
}

func (r Result) OK() bool {
	return len(r.Violations) == 0
}

func (r Result) Error() string {
	return strings.Join(r.Violations, "; ")
}

func (r *Result) add(format string, args ...any) {
	r.Violations = append(r.Violations, fmt.Sprintf(format, args...))
}

// ValidateOrder checks an order request against the configured limits before
// it is sent anywhere.
func ValidateOrder(req domain.CreateOrderRequest, limits config.Limits) Result {
	var result Result

	if len(req.Items) == 0 {
		result.add("order must contain at least one item")
	}
	if len(req.Items) > limits.MaxCartItems {
		result.add("order cannot contain more than %d items", limits.MaxCartItems)
	}
	if strings.TrimSpace(req.TableID) == "" {
		result.add("table id is required")
	}

	for i, item := range req.Items {
		if !IsValidQuantity(item.Quantity, limits) {
			result.add("item %d: quantity must be a positive integer up to %d", i+1, limits.MaxProductQuantity)
		}
		if utf8.RuneCountInString(item.Notes) > limits.MaxNotesLength {
			result.add("item %d: notes cannot exceed %d characters", i+1, limits.MaxNotesLength)
		}
	}

	if req.TotalAmount < limits.MinOrderAmount {
		result.add("order total must be at least %.0f COP", limits.MinOrderAmount)
	}
	if req.TotalAmount > limits.MaxOrderAmount {
		result.add("order total cannot exceed %.0f COP", limits.MaxOrderAmount)
	}

	return result
}

// ValidateProduct checks an admin product submission.
func ValidateProduct(req domain.ProductRequest, limits config.Limits) Result {
	var result Result

	if !IsNotEmpty(req.Name) {
		result.add("product name is required")
	} else if utf8.RuneCountInString(strings.TrimSpace(req.Name)) > limits.MaxProductNameLength {
		result.add("product name cannot exceed %d characters", limits.MaxProductNameLength)
	}
	if !IsValidPrice(req.Price) {
		result.add("price must be a number greater than or equal to 0")
	}
	if req.Description != "" && utf8.RuneCountInString(strings.TrimSpace(req.Description)) > limits.MaxDescriptionLength {
		result.add("description cannot exceed %d characters", limits.MaxDescriptionLength)
	}
	if req.CategoryID == "" {
		result.add("category is required")
	}

	return result
}

// ValidateLogin checks login credentials locally before calling the server.
func ValidateLogin(username, password string) Result {
	var result Result

	if !IsNotEmpty(username) {
		result.add("username is required")
	}
	if !IsNotEmpty(password) {
		result.add("password is required")
	} else if utf8.RuneCountInString(strings.TrimSpace(password)) < 4 {
		result.add("password must have at least 4 characters")
	}

	return result
}

// IsValidQuantity reports whether quantity is a positive integer within the
// configured per-product maximum.
func IsValidQuantity(quantity int, limits config.Limits) bool {
	return quantity > 0 && quantity <= limits.MaxProductQuantity
}

// IsValidPrice reports whether price is a usable non-negative amount.
func IsValidPrice(price float64) bool {
	return price >= 0
}

func IsNotEmpty(s string) bool {
	return strings.TrimSpace(s) != ""
}

func IsValidEmail(email string) bool {
	return emailPattern.MatchString(strings.TrimSpace(email))
}

// IsValidPhone accepts ten-digit Colombian phone numbers, ignoring any
// non-digit separators.
func IsValidPhone(phone string) bool {
	var digits strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	return phonePattern.MatchString(digits.String())
}

// Sanitize trims, strips angle brackets and enforces a hard length cap on
// free-text input.
func Sanitize(s string) string {
	s = strings.TrimSpace(s)
	s = strings.NewReplacer("<", "", ">", "").Replace(s)
	if utf8.RuneCountInString(s) > 1000 {
		runes := []rune(s)
		s = string(runes[:1000])
	}
	return s
}
