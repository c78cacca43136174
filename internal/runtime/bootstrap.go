package runtime

import "strings"

// verifyToolchain exits non-zero unless both bun and node are on the login PATH.
const verifyToolchain = "command -v bun && command -v node"

var bootstrapSteps = []string{
	"set -e",
	"export DEBIAN_FRONTEND=noninteractive",
	"export HOME=/root",
	"export PATH=/usr/local/bin:/usr/bin:/bin:$PATH",
	"mkdir -p /usr/local/bin",
	"apt-get update -y",
	"apt-get install -y curl ca-certificates gnupg git build-essential python3 pkg-config unzip",
	"if ! command -v node >/dev/null 2>&1; then curl -fsSL https://deb.nodesource.com/setup_20.x | bash -; apt-get install -y nodejs; fi",
	"if ! command -v bun >/dev/null 2>&1; then curl -fsSL https://bun.sh/install | bash; fi",
	"if [ -x /root/.bun/bin/bun ]; then ln -sf /root/.bun/bin/bun /usr/local/bin/bun; ln -sf /root/.bun/bin/bunx /usr/local/bin/bunx; fi",
	"chmod 755 /root /root/.bun /root/.bun/bin 2>/dev/null || true",
	`printf 'export PATH=/usr/local/bin:/root/.bun/bin:$PATH\n' > /etc/profile.d/devtools.sh`,
}

// BootstrapScript returns the root shell script that installs the toolchain.
func BootstrapScript() string {
	return strings.Join(bootstrapSteps, " && ")
}
