package dependencies

import "github.com/fulmenhq/licensescan/pkg/dependencies/classify"

// licenseURL returns standard URL for license type. Compound expressions and
// identifiers without a canonical text get none.
func licenseURL(licenseType string) string {
	if classify.IsCompound(licenseType) {
		return ""
	}
	switch licenseType {
	case "MIT":
		return "https://opensource.org/licenses/MIT"
	case "Apache-2.0":
		return "https://www.apache.org/licenses/LICENSE-2.0"
	case "BSD-3-Clause":
		return "https://opensource.org/licenses/BSD-3-Clause"
	case "BSD-2-Clause":
		return "https://opensource.org/licenses/BSD-2-Clause"
	case "0BSD":
		return "https://opensource.org/licenses/0BSD"
	case "GPL-3.0":
		return "https://www.gnu.org/licenses/gpl-3.0.html"
	case "LGPL-2.1":
		return "https://www.gnu.org/licenses/lgpl-2.1.html"
	case "LGPL-3.0":
		return "https://www.gnu.org/licenses/lgpl-3.0.html"
	case "ISC":
		return "https://opensource.org/licenses/ISC"
	case "MPL-2.0":
		return "https://www.mozilla.org/en-US/MPL/2.0/"
	case "Python-2.0":
		return "https://www.python.org/download/releases/2.0/license/"
	case "CC0-1.0":
		return "https://creativecommons.org/publicdomain/zero/1.0/"
	case "CC-BY-3.0":
		return "https://creativecommons.org/licenses/by/3.0/"
	case "CC-BY-4.0":
		return "https://creativecommons.org/licenses/by/4.0/"
	case "OFL-1.1":
		return "https://openfontlicense.org/"
	case "Unlicense":
		return "http://unlicense.org/"
	default:
		return ""
	}
}
