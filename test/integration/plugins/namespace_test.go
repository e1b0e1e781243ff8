// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rubick Contributors

//go:build integration

package plugins_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/gclm/rubick/internal/compat"
	"github.com/gclm/rubick/internal/hostapi"
	"github.com/gclm/rubick/internal/hostapi/hostapitest"
	"github.com/gclm/rubick/internal/plugin"
	"github.com/gclm/rubick/internal/plugin/archive/archivetest"
	"github.com/gclm/rubick/internal/plugin/convert"
	"github.com/gclm/rubick/internal/plugin/installer"
)

// noopRunner answers every npm call with success.
type noopRunner struct{}

func (noopRunner) Run(context.Context, string, string, ...string) ([]byte, error) {
	return nil, nil
}

func writeTree(dir string, files map[string]string) {
	for name, content := range files {
		path := filepath.Join(dir, name)
		Expect(os.MkdirAll(filepath.Dir(path), 0o750)).To(Succeed())
		Expect(os.WriteFile(path, []byte(content), 0o600)).To(Succeed())
	}
}

const nativeDemo = `{"name":"demo","version":"0.1.0","description":"native","main":"index.html","features":[]}`

var _ = Describe("Installer and converter sharing one plugin root", func() {
	var (
		ctx  context.Context
		root string
		inst *installer.Installer
		conv *convert.Converter
	)

	BeforeEach(func() {
		ctx = context.Background()
		root = filepath.Join(GinkgoT().TempDir(), "plugins")

		var err error
		inst, err = installer.New(ctx, root, installer.WithRunner(noopRunner{}))
		Expect(err).NotTo(HaveOccurred())
		conv, err = convert.New(root, convert.WithTempRoot(filepath.Join(GinkgoT().TempDir(), "tmp")))
		Expect(err).NotTo(HaveOccurred())
	})

	discovered := func() []*plugin.Installed {
		found, err := plugin.NewLayout(root).Discover(ctx)
		Expect(err).NotTo(HaveOccurred())
		return found
	}

	When("a converted package has the name of a native plugin", func() {
		BeforeEach(func() {
			src := GinkgoT().TempDir()
			writeTree(src, map[string]string{
				"package.json":  nativeDemo,
				"index.html":    "native",
				"lib/native.js": "// native only",
			})
			Expect(inst.DevInstall(ctx, src, "demo")).To(Succeed())
		})

		It("replaces the native plugin wholesale", func() {
			res := conv.Convert(ctx, archivetest.Upx(GinkgoTB(), map[string]string{
				"plugin.json": archivetest.DemoManifest,
				"index.html":  "converted",
			}))
			Expect(res.Success).To(BeTrue(), res.Error)

			found := discovered()
			Expect(found).To(HaveLen(1))
			Expect(found[0].Manifest.PluginType()).To(Equal(plugin.TypeConverted))

			dir := filepath.Join(root, "node_modules", "demo")
			Expect(os.ReadFile(filepath.Join(dir, "index.html"))).To(Equal([]byte("converted")))
			Expect(filepath.Join(dir, "lib", "native.js")).NotTo(BeAnExistingFile())
		})

		It("is removed by either component", func() {
			Expect(conv.Convert(ctx, archivetest.Upx(GinkgoTB(), map[string]string{
				"plugin.json": archivetest.DemoManifest,
			})).Success).To(BeTrue())

			Expect(inst.Uninstall(ctx, []string{"demo"}, installer.InstallOptions{IsDev: true})).To(Succeed())
			Expect(discovered()).To(BeEmpty())
			Expect(conv.Remove(ctx, "demo")).To(Succeed())
		})
	})

	When("both components write different plugins at once", func() {
		It("keeps both plugins", func() {
			src := GinkgoT().TempDir()
			writeTree(src, map[string]string{"package.json": `{"name":"native-one","version":"1.0.0","description":"n","main":"index.html","features":[]}`})
			pkg := archivetest.Upx(GinkgoTB(), map[string]string{"plugin.json": archivetest.DemoManifest})

			var wg sync.WaitGroup
			errs := make(chan error, 1)
			results := make(chan convert.Result, 1)
			wg.Add(2)
			go func() {
				defer GinkgoRecover()
				defer wg.Done()
				errs <- inst.DevInstall(ctx, src, "native-one")
			}()
			go func() {
				defer GinkgoRecover()
				defer wg.Done()
				results <- conv.Convert(ctx, pkg)
			}()
			wg.Wait()

			Expect(<-errs).To(Succeed())
			Expect((<-results).Success).To(BeTrue())

			names := []string{}
			for _, p := range discovered() {
				names = append(names, p.Manifest.Name)
			}
			Expect(names).To(ConsistOf("demo", "native-one"))
		})
	})

	When("a foreign plugin installs through the compat facade", func() {
		It("lands in the shared root and is listed by the host", func() {
			host := hostapitest.NewHost()
			conv.Register(host.Mux)
			client := hostapi.NewClient(host.Mux)
			facade, err := compat.New(client, client.DB())
			Expect(err).NotTo(HaveOccurred())

			dir := GinkgoT().TempDir()
			pkg := filepath.Join(dir, "demo"+compat.PackageExt)
			Expect(os.WriteFile(pkg, archivetest.Upx(GinkgoTB(), map[string]string{
				"plugin.json": archivetest.DemoManifest,
			}), 0o600)).To(Succeed())
			writeTree(dir, map[string]string{"demo/plugin.json": archivetest.DemoManifest})

			Expect(facade.InstallPlugin(ctx, pkg)).To(BeTrue())

			infos := facade.GetInstalledPlugins(ctx)
			Expect(infos).To(HaveLen(1))
			Expect(infos[0].Type).To(Equal(plugin.TypeConverted))

			names, err := inst.List(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(names).To(BeEmpty(), "conversion does not declare npm dependencies")
		})
	})
})
