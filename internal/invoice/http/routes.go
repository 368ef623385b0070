// Package invoicehttp exposes the invoice panel over JSON.
package invoicehttp

import "github.com/go-chi/chi/v5"

// MountRoutes registers draft and invoice routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/drafts", func(r chi.Router) {
		r.Post("/", h.createDraft)
		r.Route("/{draftID}", func(r chi.Router) {
			r.Get("/", h.getDraft)
			r.Delete("/", h.discardDraft)
			r.Post("/changes", h.applyChange)
			r.Post("/rows", h.addRow)
			r.Delete("/rows/{row}", h.removeRow)
			r.Post("/save", h.saveDraft)
		})
	})
	r.Route("/invoices", func(r chi.Router) {
		r.Get("/", h.listInvoices)
		r.Get("/export", h.exportInvoices)
		r.Route("/{invoiceID}", func(r chi.Router) {
			r.Get("/", h.viewInvoice)
			r.Delete("/", h.deleteInvoice)
			r.Post("/edit", h.openEdit)
			r.Post("/confirm", h.confirmInvoice)
			r.Post("/returns", h.recordReturn)
		})
	})
}
