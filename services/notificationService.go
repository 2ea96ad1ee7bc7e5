package services

import (
	"fmt"
	"log"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/solemart/solemart-api/utils"
)

// Notifier is the best-effort side channel for order events. It must
// never block or fail the operation that triggered it.
type Notifier interface {
	OrderPlaced(order *OrderView, customer Actor)
	OrderCancelled(orderID int, customer Actor)
}

// EmailNotifier sends the admin and customer mails for order events. All
// sends happen on a detached goroutine and failures are only logged.
type EmailNotifier struct{}

func (EmailNotifier) OrderPlaced(order *OrderView, customer Actor) {
	adminEmail := os.Getenv("ADMIN_EMAIL")

	go func() {
		var group errgroup.Group

		if adminEmail != "" {
			group.Go(func() error {
				return utils.SendEmail(adminEmail, fmt.Sprintf("New Order Received - %d", order.ID),
					fmt.Sprintf(`<h2>New Order Received</h2>
<p><b>Order ID:</b> %d</p>
<p><b>User:</b> %s</p>
<p><b>Total:</b> ₹%.2f</p>
<p><b>Delivery Address:</b> %s, %s, %s %s</p>`,
						order.ID, customer.Email, order.Total,
						order.Address.Address, order.Address.City, order.Address.State, order.Address.ZipCode))
			})
		}

		group.Go(func() error {
			name := customer.Name
			if name == "" {
				name = "there"
			}
			return utils.SendEmail(customer.Email, fmt.Sprintf("Order Confirmation - %d", order.ID),
				fmt.Sprintf(`<h2>Order Confirmed</h2>
<p>Hi %s,</p>
<p>Your order <b>%d</b> has been placed successfully.</p>
<p><b>Total:</b> ₹%.2f</p>
<p><b>Delivery Address:</b> %s, %s, %s %s</p>
<p>We'll notify you once it's shipped.</p>`,
					name, order.ID, order.Total,
					order.Address.Address, order.Address.City, order.Address.State, order.Address.ZipCode))
		})

		if err := group.Wait(); err != nil {
			log.Println("order placed notification error:", err)
		}
	}()
}

func (EmailNotifier) OrderCancelled(orderID int, customer Actor) {
	go func() {
		err := utils.SendEmail(customer.Email, fmt.Sprintf("Order Cancelled - %d", orderID),
			fmt.Sprintf(`<h2>Order Cancelled</h2>
<p>Your order <b>%d</b> has been cancelled and any held stock has been released.</p>`, orderID))
		if err != nil {
			log.Println("order cancelled notification error:", err)
		}
	}()
}
