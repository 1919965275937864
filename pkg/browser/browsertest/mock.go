package browsertest

import (
	"github.com/entrhq/uirunner/pkg/browser"
	"github.com/stretchr/testify/mock"
)

// MockDriver is a testify mock of browser.Driver.
type MockDriver struct {
	mock.Mock
}

func (m *MockDriver) FindElements(loc browser.Locator) ([]browser.Element, error) {
	args := m.Called(loc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]browser.Element), args.Error(1)
}

func (m *MockDriver) CurrentURL() (string, error) {
	args := m.Called()
	return args.String(0), args.Error(1)
}

func (m *MockDriver) Navigate(url string) error {
	args := m.Called(url)
	return args.Error(0)
}

func (m *MockDriver) Close() error {
	args := m.Called()
	return args.Error(0)
}

var _ browser.Driver = (*MockDriver)(nil)
