package catalog

import (
	"github.com/valinor-ai/navgate/internal/orgchart"
	"github.com/valinor-ai/navgate/internal/pathmap"
)

// Role ids of the built-in dashboard catalog.
const (
	RoleCEO             = "0b8f2c4e-6a1d-4f3b-9e57-1c2d3a4b5c60"
	RoleExecAssistant   = "0b8f2c4e-6a1d-4f3b-9e57-1c2d3a4b5c61"
	RolePurchasingHead  = "5e7a91d2-3c48-4b0f-8a6e-2f1b0c9d8e70"
	RoleBuyer           = "5e7a91d2-3c48-4b0f-8a6e-2f1b0c9d8e71"
	RoleSupplierManager = "5e7a91d2-3c48-4b0f-8a6e-2f1b0c9d8e72"
	RoleCatalogHead     = "9a3d6f18-2b7c-4e05-b1a9-7d6c5e4f3a80"
	RoleProductEditor   = "9a3d6f18-2b7c-4e05-b1a9-7d6c5e4f3a81"
	RoleBrandManager    = "9a3d6f18-2b7c-4e05-b1a9-7d6c5e4f3a82"
	RoleHRHead          = "c4b2e7a9-8d15-4a6f-9c30-5b4a3f2e1d90"
	RoleRecruiter       = "c4b2e7a9-8d15-4a6f-9c30-5b4a3f2e1d91"
	RoleWarehouseHead   = "e1f0d9c8-7b6a-4594-8372-6150f4e3d2a0"
	RoleStockKeeper     = "e1f0d9c8-7b6a-4594-8372-6150f4e3d2a1"
)

// Default returns the catalog shipped with the dashboard: suppliers,
// products, brands and employees under the management section.
func Default() *Catalog {
	c, err := New(defaultChart(), defaultPaths())
	if err != nil {
		panic("catalog: built-in catalog is invalid: " + err.Error())
	}
	return c
}

func defaultChart() *orgchart.Chart {
	return &orgchart.Chart{
		Divisions: []orgchart.Division{
			{
				Key: "executive",
				Departments: []orgchart.Department{
					{
						Key:       "board",
						Head:      orgchart.Role{ID: RoleCEO, RoleKey: "CEO", RoleLabel: "Chief executive"},
						Employees: []orgchart.Role{{ID: RoleExecAssistant, RoleLabel: "Executive assistant"}},
					},
				},
			},
			{
				Key: "commercial",
				Departments: []orgchart.Department{
					{
						Key:  "purchasing",
						Head: orgchart.Role{ID: RolePurchasingHead, RoleKey: "PurchasingHead", RoleLabel: "Head of purchasing"},
						Employees: []orgchart.Role{
							{ID: RoleBuyer, RoleKey: "Buyer", RoleLabel: "Buyer"},
							{ID: RoleSupplierManager, RoleLabel: "Supplier manager"},
						},
					},
					{
						Key:  "catalog",
						Head: orgchart.Role{ID: RoleCatalogHead, RoleLabel: "Head of catalog"},
						Employees: []orgchart.Role{
							{ID: RoleProductEditor, RoleLabel: "Product editor"},
							{ID: RoleBrandManager, RoleLabel: "Brand manager"},
						},
					},
				},
			},
			{
				Key: "operations",
				Departments: []orgchart.Department{
					{
						Key:       "hr",
						Head:      orgchart.Role{ID: RoleHRHead, RoleKey: "HRHead", RoleLabel: "Head of HR"},
						Employees: []orgchart.Role{{ID: RoleRecruiter, RoleLabel: "Recruiter"}},
					},
					{
						Key:       "warehouse",
						Head:      orgchart.Role{ID: RoleWarehouseHead, RoleLabel: "Warehouse lead"},
						Employees: []orgchart.Role{{ID: RoleStockKeeper, RoleLabel: "Stock keeper"}},
					},
				},
			},
		},
	}
}

func defaultPaths() []pathmap.Entry {
	everyone := []string{
		RoleCEO, RoleExecAssistant,
		RolePurchasingHead, RoleBuyer, RoleSupplierManager,
		RoleCatalogHead, RoleProductEditor, RoleBrandManager,
		RoleHRHead, RoleRecruiter,
		RoleWarehouseHead, RoleStockKeeper,
	}
	return []pathmap.Entry{
		{Template: "/dashboard", ViewRoles: everyone},
		{
			Template:    "/dashboard/management/suppliers",
			ViewRoles:   []string{RoleCEO, RolePurchasingHead, RoleBuyer, RoleSupplierManager, RoleWarehouseHead},
			ActionRoles: []string{RolePurchasingHead, RoleSupplierManager},
		},
		{
			Template:    "/dashboard/management/suppliers/[id]",
			ViewRoles:   []string{RoleCEO, RolePurchasingHead, RoleBuyer, RoleSupplierManager},
			ActionRoles: []string{RolePurchasingHead, RoleSupplierManager},
		},
		{
			Template:    "/dashboard/management/products",
			ViewRoles:   []string{RoleCEO, RolePurchasingHead, RoleBuyer, RoleCatalogHead, RoleProductEditor, RoleWarehouseHead, RoleStockKeeper},
			ActionRoles: []string{RoleCatalogHead, RoleProductEditor},
		},
		{
			Template:    "/dashboard/management/products/[id]",
			ViewRoles:   []string{RoleCEO, RolePurchasingHead, RoleBuyer, RoleCatalogHead, RoleProductEditor, RoleWarehouseHead},
			ActionRoles: []string{RoleCatalogHead, RoleProductEditor, RoleStockKeeper},
		},
		{
			Template:    "/dashboard/management/brands",
			ViewRoles:   []string{RoleCEO, RoleCatalogHead, RoleProductEditor, RoleBrandManager, "Buyer"},
			ActionRoles: []string{RoleCatalogHead, RoleBrandManager},
		},
		{
			Template:    "/dashboard/management/brands/[id]",
			ViewRoles:   []string{RoleCEO, RoleCatalogHead, RoleBrandManager},
			ActionRoles: []string{RoleCatalogHead, RoleBrandManager},
		},
		{
			Template:    "/dashboard/management/employees",
			ViewRoles:   []string{RoleCEO, RoleExecAssistant, RoleHRHead, RoleRecruiter},
			ActionRoles: []string{RoleHRHead},
		},
		{
			Template:    "/dashboard/management/employees/[id]",
			ViewRoles:   []string{RoleCEO, RoleHRHead, RoleRecruiter},
			ActionRoles: []string{RoleHRHead, RoleRecruiter},
		},
		{
			Template:  "/dashboard/settings/permissions",
			ViewRoles: []string{RoleCEO},
		},
	}
}
