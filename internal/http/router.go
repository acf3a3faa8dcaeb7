package httpapi

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/media"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/middleware"
)

type Deps struct {
	Logger         *log.Logger
	RequestTimeout time.Duration

	// Tokens may be nil when only gateway headers are trusted.
	Tokens       middleware.TokenParser
	TrustHeaders bool

	Identity IdentityService
	Catalog  CatalogService
	Cart     CartService
	Wishlist WishlistService
	Orders   OrderService
	Images   media.ImageStore

	// OrderFeed serves the admin websocket; omitted when nil.
	OrderFeed http.Handler

	// Ping backs /health; nil means always healthy.
	Ping func(ctx context.Context) error
}

func NewRouter(d Deps) http.Handler {
	logger := d.Logger
	if logger == nil {
		logger = log.Default()
	}

	auth := NewAuthHandler(d.Identity, logger, d.RequestTimeout)
	catalog := NewCatalogHandler(d.Catalog, d.Images, logger, d.RequestTimeout)
	carts := NewCartHandler(d.Cart, logger, d.RequestTimeout)
	wishlists := NewWishlistHandler(d.Wishlist, logger, d.RequestTimeout)
	orders := NewOrderHandler(d.Orders, logger, d.RequestTimeout)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.CorrelationID)
	r.Use(chimw.RequestLogger(&chimw.DefaultLogFormatter{Logger: logger, NoColor: true}))
	r.Use(middleware.Recover(logger))
	r.Use(middleware.Authenticate(d.Tokens, d.TrustHeaders, logger))

	r.Get("/health", health(d.Ping))

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", auth.Register)
		r.Post("/auth/login", auth.Login)

		r.Route("/public/products", func(r chi.Router) {
			r.Get("/", catalog.ListProducts)
			r.Get("/search", catalog.Search)
			r.Get("/category/{category}", catalog.ListByCategory)
			r.Get("/{productId}", catalog.GetProduct)
		})
		r.Get("/categories", catalog.ListCategories)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireUser)

			r.Get("/auth/profile", auth.Profile)
			r.Put("/auth/profile", auth.UpdateProfile)
			r.Post("/auth/password", auth.ChangePassword)

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", carts.GetCart)
				r.Post("/", carts.AddItem)
				r.Delete("/", carts.ClearCart)
				r.Put("/{productId}", carts.SetQuantity)
				r.Delete("/{productId}", carts.RemoveItem)
			})

			r.Route("/wishlist", func(r chi.Router) {
				r.Get("/", wishlists.List)
				r.Post("/", wishlists.Add)
				r.Get("/count", wishlists.Count)
				r.Delete("/{productId}", wishlists.Remove)
				r.Post("/{productId}/move-to-cart", wishlists.MoveToCart)
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", orders.ListMine)
				r.Post("/", orders.Checkout)
				r.Get("/{orderId}", orders.GetMine)
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireAdmin)

			r.Get("/products", catalog.ListAllProducts)
			r.Post("/products", catalog.CreateProduct)
			r.Put("/products/{productId}", catalog.UpdateProduct)
			r.Delete("/products/{productId}", catalog.DeleteProduct)
			r.Post("/products/{productId}/image", catalog.UploadImage)
			r.Post("/categories", catalog.CreateCategory)

			r.Get("/users", auth.ListCustomers)

			r.Get("/orders", orders.ListAll)
			r.Get("/orders/{orderId}", orders.Get)
			r.Patch("/orders/{orderId}/status", orders.UpdateStatus)
			if d.OrderFeed != nil {
				r.Handle("/orders/ws", d.OrderFeed)
			}
		})
	})

	return r
}

func health(ping func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ping != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := ping(ctx); err != nil {
				http.Error(w, "unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}
