package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/HaikalHH/mugifumiapp-sub000/internal/database"
	"github.com/HaikalHH/mugifumiapp-sub000/internal/enum"
)

// regenState captures what a WhatsApp payment link was issued for.
type regenState struct {
	Outlet        string
	Status        string
	HasDeliveries bool
	Signature     string
}

// paymentSignature is "<sorted productId:qty>|<total>|<ongkir>". Any change
// means the existing payment link charges the wrong amount or items.
func paymentSignature(lines []line, total, ongkir int64) string {
	qty := make(map[int64]int64, len(lines))
	for _, l := range lines {
		qty[l.ProductID] += int64(l.Quantity)
	}
	ids := make([]int64, 0, len(qty))
	for id := range qty {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	pairs := make([]string, 0, len(ids))
	for _, id := range ids {
		pairs = append(pairs, fmt.Sprintf("%d:%d", id, qty[id]))
	}
	return strings.Join(pairs, ",") + "|" + strconv.FormatInt(total, 10) + "|" + strconv.FormatInt(ongkir, 10)
}

func shouldRegenerate(before, after regenState) bool {
	return after.Outlet == enum.OutletWhatsApp &&
		!after.HasDeliveries &&
		after.Status != enum.OrderStatusPaid &&
		before.Signature != after.Signature
}

// regeneratePayment replaces the stored payment link after an edit. The edit
// is already committed; on failure the caller reports it alongside the order.
func (s *OrderService) regeneratePayment(ctx context.Context, order database.Order, items []database.OrderItem, products map[int64]database.Product, sum totals) (database.Order, error) {
	if order.TotalAmount <= 0 {
		return order, nil
	}
	return s.attachPayment(ctx, order, items, products, sum)
}
