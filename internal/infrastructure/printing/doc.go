// Package printing renders lease contracts: an html/template document is
// filled with room and landlord data, then printed to an A4 PDF by a headless
// Chrome driven through chromedp.
//
//	r, err := NewChromedpRenderer(cfg.Printing, logger)
//	html, err := contracts.RenderHTML(data)
//	res, err := r.Render(ctx, &RenderRequest{HTML: html, Title: "租賃契約"})
package printing
