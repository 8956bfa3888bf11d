package shared

// Roles known to the seed command.
const (
	RoleAdmin      = "admin"
	RoleSales      = "sales"
	RoleProduction = "production"
	RoleFinance    = "finance"
)

// Permissions checked by the RBAC middleware.
const (
	PermMasterView = "master.view"
	PermMasterEdit = "master.edit"
	PermStaffEdit  = "staff.edit"

	PermQuotationView    = "sales.quotation.view"
	PermQuotationCreate  = "sales.quotation.create"
	PermQuotationEdit    = "sales.quotation.edit"
	PermQuotationApprove = "sales.quotation.approve"

	PermSalesOrderView    = "sales.order.view"
	PermSalesOrderCreate  = "sales.order.create"
	PermSalesOrderEdit    = "sales.order.edit"
	PermSalesOrderConfirm = "sales.order.confirm"

	PermJobOrderView = "production.job.view"
	PermJobOrderEdit = "production.job.edit"

	PermInvoiceView     = "billing.invoice.view"
	PermInvoiceGenerate = "billing.invoice.generate"
	PermPaymentSubmit   = "billing.payment.submit"
	PermPaymentVerify   = "billing.payment.verify"

	PermInventoryView = "inventory.view"
	PermInventoryEdit = "inventory.edit"
)

// AllPermissions lists every permission with a description, in seed order.
func AllPermissions() [][2]string {
	return [][2]string{
		{PermMasterView, "View master data"},
		{PermMasterEdit, "Manage customers, products, warehouses and price tiers"},
		{PermStaffEdit, "Manage staff accounts"},
		{PermQuotationView, "View quotations"},
		{PermQuotationCreate, "Create quotations"},
		{PermQuotationEdit, "Edit, revise and duplicate quotations"},
		{PermQuotationApprove, "Approve or reject quotations"},
		{PermSalesOrderView, "View sales orders"},
		{PermSalesOrderCreate, "Create sales orders"},
		{PermSalesOrderEdit, "Edit draft sales orders"},
		{PermSalesOrderConfirm, "Confirm sales orders"},
		{PermJobOrderView, "View job orders"},
		{PermJobOrderEdit, "Record production progress"},
		{PermInvoiceView, "View invoices"},
		{PermInvoiceGenerate, "Generate invoices"},
		{PermPaymentSubmit, "Submit payment proofs"},
		{PermPaymentVerify, "Verify or reject payments"},
		{PermInventoryView, "View stock"},
		{PermInventoryEdit, "Post transfers and adjustments"},
	}
}

// RolePermissions returns the default permission set of a seeded role.
func RolePermissions(role string) []string {
	switch role {
	case RoleSales:
		return []string{
			PermMasterView, PermQuotationView, PermQuotationCreate, PermQuotationEdit,
			PermSalesOrderView, PermSalesOrderCreate, PermSalesOrderEdit, PermSalesOrderConfirm,
			PermInvoiceView, PermPaymentSubmit, PermInventoryView,
		}
	case RoleProduction:
		return []string{PermMasterView, PermJobOrderView, PermJobOrderEdit, PermInventoryView, PermInventoryEdit}
	case RoleFinance:
		return []string{
			PermMasterView, PermSalesOrderView, PermInvoiceView, PermInvoiceGenerate,
			PermPaymentSubmit, PermPaymentVerify,
		}
	case RoleAdmin:
		perms := make([]string, 0, len(AllPermissions()))
		for _, p := range AllPermissions() {
			perms = append(perms, p[0])
		}
		return perms
	}
	return nil
}
