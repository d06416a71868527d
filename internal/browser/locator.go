package browser

import (
	"fmt"
	"strconv"
)

// Strategy is how a locator value is interpreted.
type Strategy string

const (
	ByID    = Strategy("id")
	ByName  = Strategy("name")
	ByCSS   = Strategy("css")
	ByXPath = Strategy("xpath")
	ByText  = Strategy("text")
)

// Locator identifies a DOM element. Locators are declared as data next to the
// page that uses them and are never built from page content.
type Locator struct {
	Strategy Strategy
	Value    string
}

func ID(value string) Locator    { return Locator{Strategy: ByID, Value: value} }
func Name(value string) Locator  { return Locator{Strategy: ByName, Value: value} }
func CSS(value string) Locator   { return Locator{Strategy: ByCSS, Value: value} }
func XPath(value string) Locator { return Locator{Strategy: ByXPath, Value: value} }
func Text(value string) Locator  { return Locator{Strategy: ByText, Value: value} }

func (l Locator) String() string {
	return fmt.Sprintf("%s=%s", l.Strategy, l.Value)
}

// Selector renders the locator in playwright's selector syntax.
func (l Locator) Selector() (string, error) {
	if l.Value == "" {
		return "", fmt.Errorf("%w: empty value for %q", ErrInvalidLocator, l.Strategy)
	}

	switch l.Strategy {
	case ByID:
		return "id=" + l.Value, nil
	case ByName:
		return "css=[name=" + strconv.Quote(l.Value) + "]", nil
	case ByCSS:
		return "css=" + l.Value, nil
	case ByXPath:
		return "xpath=" + l.Value, nil
	case ByText:
		return "text=" + l.Value, nil
	}

	return "", fmt.Errorf("%w: %q", ErrUnsupportedStrategy, l.Strategy)
}
