package sqlinline

const QInsertUser = `--sql e84898f4-d4ef-417e-9fee-ec1282ac94fa
with incoming as (
    select
        $1::text as username,
        $2::text as email,
        $3::text as password_hash,
        $4::text as first_name,
        $5::text as last_name,
        $6::text as verification_token,
        $7::text as language
)
insert into users (username, email, password_hash, first_name, last_name, role, is_active, verification_token, verification_expires_at, language)
select username, email, password_hash, first_name, last_name, 'USER', false, verification_token, now() + interval '24 hours', language
from incoming
on conflict do nothing
returning id, created_at;
`

const QSelectUserByUsername = `--sql 5097f516-c124-4f42-bcbe-3d4d7d7bc2f3
select
    id,
    username,
    email,
    password_hash,
    role,
    is_active,
    failed_login_attempts,
    locked_until,
    language,
    timezone,
    created_at,
    updated_at
from users
where username = $1::text or email = $1::text
limit 1;
`

const QSelectUserByID = `--sql 65c01023-0b7d-4c6c-927f-27abadc685c1
select
    id,
    username,
    email,
    first_name,
    last_name,
    role,
    is_active,
    locked_until,
    oauth_provider,
    language,
    timezone,
    created_at,
    updated_at
from users
where id = $1::uuid
limit 1;
`

const QRecordLoginFailure = `--sql 59f27230-69f9-493a-87b4-22a5a37b1a7a
update users
set failed_login_attempts = failed_login_attempts + 1,
    locked_until = case
        when failed_login_attempts + 1 >= $2::int then now() + ($3::int * interval '1 second')
        else locked_until
    end,
    updated_at = now()
where id = $1::uuid
returning failed_login_attempts, locked_until;
`

const QRecordLoginSuccess = `--sql 0a0b28db-7970-4530-a817-9a602c2a5ee8
update users
set failed_login_attempts = 0,
    locked_until = null,
    last_login_at = now(),
    updated_at = now()
where id = $1::uuid;
`

const QActivateUser = `--sql 1a826ee2-348f-466b-8dce-f475d379ad26
update users
set is_active = true,
    email_verified = true,
    verification_token = null,
    verification_expires_at = null,
    updated_at = now()
where verification_token = $1::text
  and verification_expires_at > now()
returning id, username;
`

const QSelectVerificationToken = `--sql 8d3f9a78-55ab-4c3f-a2f3-4dbb40c27f8e
select id, verification_expires_at
from users
where verification_token = $1::text
limit 1;
`

const QUpsertGoogleUser = `--sql 49e4cef5-89c6-4085-a7db-97f7f5bd1cbe
with incoming as (
    select
        $1::text as email,
        $2::text as username,
        $3::text as oauth_provider_id,
        $4::text as language
)
insert into users (username, email, password_hash, role, is_active, email_verified, oauth_provider, oauth_provider_id, language)
select username, email, '', 'USER', true, true, 'google', oauth_provider_id, language
from incoming
on conflict (email) do update set
    oauth_provider = 'google',
    oauth_provider_id = excluded.oauth_provider_id,
    is_active = true,
    email_verified = true,
    updated_at = now()
returning id, username, role, language;
`

const QInsertLoginAudit = `--sql 53e56008-93c8-4aef-a87e-45b90a70536d
insert into login_audit (user_id, username, success, ip, country, user_agent)
values ($1::uuid, $2::text, $3::boolean, $4::text, $5::text, $6::text);
`

const QSetUserRole = `--sql c39cad73-1c8d-4692-8884-8a75572ef125
update users
set role = $2::text,
    updated_at = now()
where username = $1::text
returning id, role;
`

const QUnlockUser = `--sql c9cf2fb9-ae3c-4442-844c-8e8e3bc010db
update users
set failed_login_attempts = 0,
    locked_until = null,
    is_active = true,
    updated_at = now()
where username = $1::text
returning id;
`
