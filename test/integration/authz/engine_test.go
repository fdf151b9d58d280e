// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 FleetRent Contributors

//go:build integration

package authz_test

import (
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/fleetrent/fleetrent/internal/authz"
	"github.com/fleetrent/fleetrent/internal/authz/audit"
)

func newPrincipalID() string {
	return "user-" + ulid.Make().String()
}

var _ = Describe("Permission overrides", func() {
	It("grants a permission the role lacks", func() {
		principalID := newPrincipalID()

		decision, err := env.Engine.CheckDynamic(env.ctx, principalID, authz.RoleUser, "payments:read", authz.CheckOptions{})
		Expect(err).NotTo(HaveOccurred())
		Expect(decision.IsAllowed()).To(BeFalse())

		Expect(env.Engine.Grant(env.ctx, principalID, "payments:read")).To(Succeed())

		decision, err = env.Engine.CheckDynamic(env.ctx, principalID, authz.RoleUser, "payments:read", authz.CheckOptions{})
		Expect(err).NotTo(HaveOccurred())
		Expect(decision.IsAllowed()).To(BeTrue())
	})

	It("keeps one row per pair across grant and deny", func() {
		principalID := newPrincipalID()

		Expect(env.Engine.Grant(env.ctx, principalID, "users:delete")).To(Succeed())
		Expect(env.Engine.Deny(env.ctx, principalID, "users:delete")).To(Succeed())

		list, err := env.Overrides.List(env.ctx, principalID)
		Expect(err).NotTo(HaveOccurred())
		Expect(list).To(HaveLen(1))
		Expect(list[0].Granted).To(BeFalse())

		decision, err := env.Engine.CheckDynamic(env.ctx, principalID, authz.RoleAdmin, "users:delete", authz.CheckOptions{})
		Expect(err).NotTo(HaveOccurred())
		// ADMIN holds users:manage statically, and a static allow is final.
		Expect(decision.IsAllowed()).To(BeTrue())

		decision, err = env.Engine.CheckDynamic(env.ctx, principalID, authz.RoleUser, "users:delete", authz.CheckOptions{})
		Expect(err).NotTo(HaveOccurred())
		Expect(decision.IsAllowed()).To(BeFalse())
		Expect(decision.Reason).To(Equal(authz.ReasonExplicitlyDenied))
	})

	It("converges under concurrent upserts for the same pair", func() {
		principalID := newPrincipalID()

		var wg sync.WaitGroup
		for i := range 16 {
			wg.Add(1)
			go func(granted bool) {
				defer wg.Done()
				defer GinkgoRecover()
				if granted {
					Expect(env.Engine.Grant(env.ctx, principalID, "vehicles:update")).To(Succeed())
				} else {
					Expect(env.Engine.Deny(env.ctx, principalID, "vehicles:update")).To(Succeed())
				}
			}(i%2 == 0)
		}
		wg.Wait()

		list, err := env.Overrides.List(env.ctx, principalID)
		Expect(err).NotTo(HaveOccurred())
		Expect(list).To(HaveLen(1), "unique key collapses racing upserts to one row")
	})

	It("reverts to role defaults after revoke", func() {
		principalID := newPrincipalID()

		Expect(env.Engine.Grant(env.ctx, principalID, "audit_logs:read")).To(Succeed())
		Expect(env.Engine.Revoke(env.ctx, principalID, "audit_logs:read")).To(Succeed())

		decision, err := env.Engine.CheckDynamic(env.ctx, principalID, authz.RoleManager, "audit_logs:read", authz.CheckOptions{})
		Expect(err).NotTo(HaveOccurred())
		Expect(decision.IsAllowed()).To(BeFalse())
		Expect(decision.Reason).To(Equal(authz.ReasonRoleLacksPermission))

		list, err := env.Overrides.List(env.ctx, principalID)
		Expect(err).NotTo(HaveOccurred())
		Expect(list).To(BeEmpty())
	})

	It("lets a granted manage override cover every action on the resource", func() {
		principalID := newPrincipalID()

		Expect(env.Engine.Grant(env.ctx, principalID, "bookings:manage")).To(Succeed())

		for _, perm := range []authz.Permission{
			"bookings:create", "bookings:read", "bookings:update", "bookings:delete", "bookings:manage",
		} {
			decision, err := env.Engine.CheckDynamic(env.ctx, principalID, authz.RoleUser, perm, authz.CheckOptions{})
			Expect(err).NotTo(HaveOccurred())
			Expect(decision.IsAllowed()).To(BeTrue(), string(perm))
		}
	})
})

var _ = Describe("Effective permissions", func() {
	It("applies overrides on top of role defaults", func() {
		principalID := newPrincipalID()

		Expect(env.Engine.Grant(env.ctx, principalID, "users:delete")).To(Succeed())
		Expect(env.Engine.Deny(env.ctx, principalID, "payments:read")).To(Succeed())

		perms, err := env.Engine.EffectivePermissions(env.ctx, principalID, authz.RoleManager)
		Expect(err).NotTo(HaveOccurred())
		Expect(perms).To(ContainElement(authz.Permission("users:delete")))
		Expect(perms).NotTo(ContainElement(authz.Permission("payments:read")))
		Expect(perms).To(ContainElement(authz.Permission("vehicles:manage")))
	})
})

var _ = Describe("Audit trail", func() {
	It("persists recorded entries and serves them newest first", func() {
		actorID := "admin-" + ulid.Make().String()

		recorder := audit.NewRecorder(env.AuditStore, GinkgoT().TempDir()+"/audit-wal.jsonl", nil,
			audit.WithFlushPeriod(20*time.Millisecond))

		for i, action := range []string{audit.ActionPermissionGrant, audit.ActionPermissionDeny, audit.ActionPermissionRevoke} {
			recorder.Record(env.ctx, audit.Entry{
				ActorID:    actorID,
				Action:     action,
				Resource:   "permissions",
				ResourceID: newPrincipalID(),
				Details:    map[string]any{"permission": "payments:read"},
				CreatedAt:  time.Now().UTC().Add(time.Duration(i) * time.Millisecond),
			})
		}
		Expect(recorder.Close()).To(Succeed())

		entries, total, err := env.AuditStore.Query(env.ctx, audit.Filters{ActorID: actorID, Limit: 10})
		Expect(err).NotTo(HaveOccurred())
		Expect(total).To(Equal(3))
		Expect(entries).To(HaveLen(3))
		Expect(entries[0].Action).To(Equal(audit.ActionPermissionRevoke), "newest first")
		Expect(entries[2].Action).To(Equal(audit.ActionPermissionGrant))
		Expect(entries[0].Details).To(HaveKeyWithValue("permission", "payments:read"))
	})

	It("paginates with a stable total", func() {
		actorID := "admin-" + ulid.Make().String()

		var batch []audit.Entry
		now := time.Now().UTC()
		for i := range 5 {
			batch = append(batch, audit.Entry{
				ID:        ulid.Make().String(),
				ActorID:   actorID,
				Action:    audit.ActionRoleChange,
				Resource:  "users",
				CreatedAt: now.Add(time.Duration(i) * time.Millisecond),
			})
		}
		Expect(env.AuditStore.Append(env.ctx, batch)).To(Succeed())

		page1, total, err := env.AuditStore.Query(env.ctx, audit.Filters{ActorID: actorID, Limit: 2})
		Expect(err).NotTo(HaveOccurred())
		Expect(total).To(Equal(5))
		Expect(page1).To(HaveLen(2))

		page2, total, err := env.AuditStore.Query(env.ctx, audit.Filters{ActorID: actorID, Limit: 2, Offset: 2})
		Expect(err).NotTo(HaveOccurred())
		Expect(total).To(Equal(5))
		Expect(page2).To(HaveLen(2))
		Expect(page2[0].ID).NotTo(Equal(page1[0].ID))
	})
})
