package routes

// Route path constants for the storefront screens the session layer navigates to
const (
	// Public screens
	RouteLanding       = "/"
	RouteRegister      = "/register"
	RouteLoginCustomer = "/login/customer"
	RouteLoginAdmin    = "/admin/login"

	// Customer screens
	RouteDashboard   = "/dashboard"
	RouteMarketplace = "/marketplace"
	RouteProfile     = "/profile"
	RouteMyOrders    = "/my-orders"

	// Admin screens
	RouteAdminDashboard = "/admin/dashboard"
)

// Navigator moves the UI to another screen. done is called once the navigation has
// completed (the previous screen is gone); it may be nil.
type Navigator interface {
	Navigate(path string, done func())
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(path string, done func())

func (f NavigatorFunc) Navigate(path string, done func()) {
	f(path, done)
}

// Immediate is a Navigator with nothing to unmount: it records nothing and completes at once.
var Immediate Navigator = NavigatorFunc(func(_ string, done func()) {
	if done != nil {
		done()
	}
})
