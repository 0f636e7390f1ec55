// Package tricount is a read-only client for the private API behind the
// Tricount shared-expense app.
//
// The API is hosted on bunq infrastructure and undocumented; this package
// speaks the same dialect as the official Android client. Access needs no
// account: the client registers a device identity (an app installation id
// plus a generated RSA key pair) through a handshake, receives a session
// token, and downloads the tricount named by a share key. The share key is
// the token in an invite link, https://tricount.com/t/<key>.
//
// Usage:
//
//	client, err := tricount.New("aAbBcCdDeEfF", tricount.WithAppID("my-app"))
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := client.Refresh(ctx); err != nil {
//		log.Fatal(err)
//	}
//	users, _ := client.Users()          // member id -> name
//	amounts, _ := client.Expenses()     // every expense amount
//	share, _ := client.ExpensesFor("2") // one member's allocated shares
//
// Amounts keep the sign convention of the wire format: spending is
// negative, money received positive. Refresh replaces the cached document
// atomically, so a failed refresh never disturbs previously fetched data.
//
// The report subpackage turns a fetched registry into a monthly breakdown
// by category, payer and beneficiary.
package tricount
