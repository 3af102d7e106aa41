package sqlinline

const QSeedUser = `--sql 5af5e044-b31b-4538-801f-584e3a7fe1e2
insert into users (username, email, password_hash, first_name, last_name, role, is_active, email_verified)
values ($1::text, $2::text, $3::text, $4::text, $5::text, $6::text, true, true)
on conflict (username) do nothing
returning id;
`

const QSeedConfigPrimary = `--sql 2407dfa4-2828-4ec9-b6b5-b205c1fbe10d
insert into configs_primary (category, value, label, description, sort_order)
values ($1::text, $2::text, $3::text, $4::text, $5::int)
on conflict (category, value, language) do nothing
returning id;
`
