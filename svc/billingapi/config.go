package billingapi

// Config carries the environment-driven settings of the billing API.
type Config struct {
	Addr        string `env:"BILLINGAPI_ADDR" envDefault:":8080"`
	CatalogPath string `env:"BILLINGAPI_CATALOG_PATH" envDefault:"configs/prices.yaml"`
	SuccessURL  string `env:"BILLINGAPI_CHECKOUT_SUCCESS_URL"`
	CancelURL   string `env:"BILLINGAPI_CHECKOUT_CANCEL_URL"`
}
